package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/tubeaudiobot/internal/queue"
)

// NewLinkHandler returns the default handler. Every plain text message is
// treated as a media link and queued for its sender.
func NewLinkHandler(deps HandlerDeps) bot.HandlerFunc {
	return linkHandler{deps}.Handle
}

type linkHandler struct {
	deps HandlerDeps
}

func (h linkHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "link")

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		log.DebugContext(ctx, "Ignoring update without text message", "update_id", update.ID)
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		log.DebugContext(ctx, "Ignoring unknown command", "chat_id", msg.Chat.ID, "text", msg.Text)
		return
	}

	req := queue.Request{
		UserID:    queue.UserID(msg.From.ID),
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      msg.Text,
	}
	started := h.deps.Queue.Submit(ctx, req)
	log.DebugContext(ctx, "Link submitted", "user_id", req.UserID, "chat_id", req.ChatID, "drainer_started", started)
}
