// Package bot wires the Telegram listener, the maintenance scheduler and the
// per-user delivery queue together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultDrainTimeout bounds how long shutdown waits for in-flight deliveries.
const DefaultDrainTimeout = 2 * time.Minute

// Listener receives updates until its context is cancelled.
type Listener interface {
	Start(ctx context.Context)
}

// Queue is the part of the delivery queue the orchestrator needs at shutdown.
type Queue interface {
	Shutdown(ctx context.Context) error
}

// Bot represents the running application and manages its components' lifecycle.
type Bot struct {
	logger       *slog.Logger
	listener     Listener
	scheduler    *Scheduler
	queue        Queue
	drainTimeout time.Duration
}

// NewBot creates the orchestrator. A zero drainTimeout uses DefaultDrainTimeout.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler, queue Queue, drainTimeout time.Duration) *Bot {
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}
	return &Bot{
		logger:       logger.With("component", "bot_orchestrator"),
		listener:     listener,
		scheduler:    scheduler,
		queue:        queue,
		drainTimeout: drainTimeout,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of them
// fails. Queued deliveries are drained before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener")
		b.listener.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped")

		if gCtx.Err() == nil {
			return errors.New("telegram listener stopped unexpectedly")
		}
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			if _, err := b.scheduler.Start(gCtx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()

	// Handlers can no longer submit, so whatever is queued now is final.
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.drainTimeout)
	defer cancel()
	if qErr := b.queue.Shutdown(drainCtx); qErr != nil {
		b.logger.Warn("Delivery queue did not drain in time", "timeout", b.drainTimeout, "error", qErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
