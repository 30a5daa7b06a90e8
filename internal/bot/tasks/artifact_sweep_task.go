package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// newArtifactSweepTask removes audio files left in the working directory by a
// crash or a killed process. Files younger than Media.StaleAfter may still
// belong to a running delivery and are kept.
func newArtifactSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "artifact_sweep")
	now := time.Now

	return func(ctx context.Context) error {
		dir := deps.Config.Media.DownloadDir
		maxAge := deps.Config.Media.StaleAfter

		entries, err := afero.ReadDir(deps.FS, dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to list %s: %w", dir, err)
		}

		removed := 0
		var freed uint64
		var errs []error
		for _, entry := range entries {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if entry.IsDir() || now().Sub(entry.ModTime()) < maxAge {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := deps.FS.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
				continue
			}
			removed++
			freed += uint64(entry.Size())
			log.DebugContext(ctx, "Removed stale artifact", "path", path, "modified", humanize.Time(entry.ModTime()))
		}

		if removed > 0 {
			log.InfoContext(ctx, "Swept stale artifacts", "removed", removed, "freed", humanize.Bytes(freed))
		}
		return errors.Join(errs...)
	}
}
