// Package ledger persists the set of users who started the bot as a flat,
// newline-terminated list of decimal identifiers.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Result describes the ledger after RecordIfAbsent.
type Result struct {
	// Count is the number of distinct users recorded.
	Count int
	// Added reports whether the user was appended by this call.
	Added bool
}

// Ledger is an append-only set of user identifiers stored in one file.
// All access goes through a mutex so a read-check-append cycle never
// interleaves with another one.
type Ledger struct {
	logger *slog.Logger
	fs     afero.Fs
	path   string

	mu sync.Mutex
}

// New creates a ledger stored at path on fs. The file is created on first record.
func New(logger *slog.Logger, fs afero.Fs, path string) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		logger: logger.With("component", "ledger"),
		fs:     fs,
		path:   path,
	}
}

// Path returns the location of the ledger file.
func (l *Ledger) Path() string {
	return l.path
}

// Count returns the number of recorded users, or 0 if the file does not exist yet.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.read()
	if err != nil {
		return 0, err
	}
	return len(entries(data)), nil
}

// RecordIfAbsent appends id unless it is already present and returns the
// resulting count. Recording an existing id changes nothing on disk.
func (l *Ledger) RecordIfAbsent(ctx context.Context, id int64) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.read()
	if err != nil {
		return Result{}, err
	}

	line := strconv.FormatInt(id, 10)
	existing := entries(data)
	for _, e := range existing {
		if e == line {
			return Result{Count: len(existing)}, nil
		}
	}

	record := line + "\n"
	// A hand-edited file may lack the final newline.
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		record = "\n" + record
	}

	if err := l.appendRecord(record); err != nil {
		return Result{}, err
	}

	count := len(existing) + 1
	l.logger.InfoContext(ctx, "Recorded new user", "user_id", id, "count", count)
	return Result{Count: count, Added: true}, nil
}

// Snapshot returns the current file contents, or nil if nothing was recorded yet.
func (l *Ledger) Snapshot(ctx context.Context) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *Ledger) read() ([]byte, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger %s: %w", l.path, err)
	}
	return data, nil
}

func (l *Ledger) appendRecord(record string) error {
	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger %s: %w", l.path, err)
	}
	if _, err := f.WriteString(record); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to ledger %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close ledger %s: %w", l.path, err)
	}
	return nil
}

// entries returns the non-blank lines of data, trimmed.
func entries(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
