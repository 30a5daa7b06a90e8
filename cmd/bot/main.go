// Package main contains the entrypoint for the link-to-audio Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/afero"

	"github.com/edgard/tubeaudiobot/internal/bot"
	"github.com/edgard/tubeaudiobot/internal/bot/handlers"
	"github.com/edgard/tubeaudiobot/internal/bot/tasks"
	"github.com/edgard/tubeaudiobot/internal/config"
	"github.com/edgard/tubeaudiobot/internal/delivery"
	"github.com/edgard/tubeaudiobot/internal/ledger"
	"github.com/edgard/tubeaudiobot/internal/logger"
	"github.com/edgard/tubeaudiobot/internal/media"
	"github.com/edgard/tubeaudiobot/internal/queue"
	"github.com/edgard/tubeaudiobot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run builds every component, runs the bot until ctx is cancelled and returns
// the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	fs := afero.NewOsFs()
	if err := media.PrepareWorkDir(fs, cfg.Media.DownloadDir); err != nil {
		log.Error("Failed to prepare download directory", "dir", cfg.Media.DownloadDir, "error", err)
		return 1
	}

	// The default handler needs the gateway, which needs the bot.
	var handleLink tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			handleLink(ctx, b, update)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	gateway := telegram.NewGateway(log, tg, fs)

	fetcher := media.NewFetcher(log, fs, media.Options{
		Binary:     cfg.Media.Binary,
		Dir:        cfg.Media.DownloadDir,
		CookieFile: cfg.Media.CookieFile,
		Format:     cfg.Media.AudioFormat,
		Quality:    cfg.Media.AudioQuality,
	})
	pipeline := delivery.NewPipeline(log, gateway, fetcher, fs, delivery.Messages{
		Received:    cfg.Messages.Received,
		FetchFailed: cfg.Messages.FetchFailed,
	})
	linkQueue := queue.NewScheduler(log, pipeline)

	users := ledger.New(log, fs, cfg.Ledger.Path)
	digester := ledger.NewDigester(log, users, gateway, cfg.Telegram.DigestChat, cfg.Ledger.DigestEvery, cfg.Messages.DigestCaption)

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Messenger: gateway,
		Ledger:    users,
		Digest:    digester,
		Queue:     linkQueue,
	}
	handleLink = handlers.NewLinkHandler(hDeps)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{Logger: log, Config: cfg, FS: fs})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, sched, linkQueue, bot.DefaultDrainTimeout)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Bot stopped due to error", "error", err)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}
