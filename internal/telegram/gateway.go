package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/afero"
)

// Gateway exposes the outbound chat operations the application needs on top
// of a go-telegram/bot client. Files are read from fs.
type Gateway struct {
	logger *slog.Logger
	bot    *bot.Bot
	fs     afero.Fs
}

// NewGateway wraps b.
func NewGateway(logger *slog.Logger, b *bot.Bot, fs afero.Fs) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		logger: logger.With("component", "telegram_gateway"),
		bot:    b,
		fs:     fs,
	}
}

// SendText sends a plain text message and returns its id.
func (g *Gateway) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	msg, err := g.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return msg.ID, nil
}

// SendAudio uploads the file at path as a playable audio attachment titled title.
func (g *Gateway) SendAudio(ctx context.Context, chatID int64, path, title string) (int, error) {
	f, err := g.fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			g.logger.WarnContext(ctx, "Failed to close audio file", "path", path, "error", err)
		}
	}()

	msg, err := g.bot.SendAudio(ctx, &bot.SendAudioParams{
		ChatID: chatID,
		Audio:  &models.InputFileUpload{Filename: title, Data: f},
		Title:  title,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send audio to chat %d: %w", chatID, err)
	}
	return msg.ID, nil
}

// DeleteMessage removes a message from the chat history.
func (g *Gateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if _, err := g.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil {
		return fmt.Errorf("failed to delete message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// SendDocument uploads data as a document to chat, which may be a numeric id or an @channel name.
func (g *Gateway) SendDocument(ctx context.Context, chat string, filename string, data io.Reader, caption string) error {
	if _, err := g.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chat,
		Document: &models.InputFileUpload{Filename: filename, Data: data},
		Caption:  caption,
	}); err != nil {
		return fmt.Errorf("failed to send document to %s: %w", chat, err)
	}
	return nil
}
