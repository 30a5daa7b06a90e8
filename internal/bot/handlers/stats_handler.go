package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the admin /stats command. It replies
// with the number of recorded users and sends the ledger digest on demand.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	count, err := h.deps.Ledger.Count(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count users", "error", err)
		return
	}

	if _, err := h.deps.Messenger.SendText(ctx, chatID, fmt.Sprintf(h.deps.Config.Messages.Stats, count)); err != nil {
		log.ErrorContext(ctx, "Failed to send stats", "error", err, "chat_id", chatID)
	}

	if count == 0 {
		return
	}
	if err := h.deps.Digest.Send(ctx, count); err != nil {
		log.ErrorContext(ctx, "Failed to send ledger digest on demand", "error", err)
	}
}
