package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/tubeaudiobot/internal/config"
	"github.com/edgard/tubeaudiobot/internal/ledger"
	"github.com/edgard/tubeaudiobot/internal/queue"
)

// Messenger sends plain text replies.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
}

// UserLedger records users who started the bot.
type UserLedger interface {
	RecordIfAbsent(ctx context.Context, id int64) (ledger.Result, error)
	Count(ctx context.Context) (int, error)
}

// Digest sends the ledger snapshot to the administrative chat.
type Digest interface {
	MaybeSend(ctx context.Context, count int) bool
	Send(ctx context.Context, count int) error
}

// Submitter accepts link requests for per-user processing.
type Submitter interface {
	Submit(ctx context.Context, req queue.Request) bool
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Messenger Messenger
	Ledger    UserLedger
	Digest    Digest
	Queue     Submitter
}
