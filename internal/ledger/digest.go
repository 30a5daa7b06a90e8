package ledger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
)

// DocumentSender delivers a file to a chat. chat is a numeric id or an @channel name.
type DocumentSender interface {
	SendDocument(ctx context.Context, chat string, filename string, data io.Reader, caption string) error
}

// Digester sends a snapshot of the ledger to an administrative chat every
// time the user count reaches a multiple of Every.
type Digester struct {
	logger  *slog.Logger
	ledger  *Ledger
	sender  DocumentSender
	dest    string
	every   int
	caption string
}

// NewDigester creates a Digester. caption is a fmt template receiving the count.
func NewDigester(logger *slog.Logger, l *Ledger, sender DocumentSender, dest string, every int, caption string) *Digester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Digester{
		logger:  logger.With("component", "digest"),
		ledger:  l,
		sender:  sender,
		dest:    dest,
		every:   every,
		caption: caption,
	}
}

// Due reports whether count triggers a digest.
func (d *Digester) Due(count int) bool {
	return d.every > 0 && count > 0 && count%d.every == 0
}

// MaybeSend sends the digest when count is due. Delivery errors are logged and
// never returned. It reports whether a send was attempted.
func (d *Digester) MaybeSend(ctx context.Context, count int) bool {
	if !d.Due(count) {
		return false
	}
	if err := d.Send(ctx, count); err != nil {
		d.logger.ErrorContext(ctx, "Failed to send ledger digest", "dest", d.dest, "count", count, "error", err)
	}
	return true
}

// Send delivers the current ledger file captioned with count.
func (d *Digester) Send(ctx context.Context, count int) error {
	data, err := d.ledger.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("ledger %s is empty", d.ledger.Path())
	}

	caption := fmt.Sprintf(d.caption, count)
	if err := d.sender.SendDocument(ctx, d.dest, filepath.Base(d.ledger.Path()), bytes.NewReader(data), caption); err != nil {
		return fmt.Errorf("failed to send ledger document: %w", err)
	}

	d.logger.InfoContext(ctx, "Sent ledger digest", "dest", d.dest, "count", count)
	return nil
}
