// Package tasks implements the periodic maintenance tasks run by the bot scheduler.
package tasks

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/edgard/tubeaudiobot/internal/config"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	FS     afero.Fs
}
