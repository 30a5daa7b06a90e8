package tasks

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/tubeaudiobot/internal/config"
)

func newTestDeps(t *testing.T) TaskDeps {
	t.Helper()
	return TaskDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			Media: config.MediaConfig{DownloadDir: "downloads", StaleAfter: time.Hour},
		},
		FS: afero.NewMemMapFs(),
	}
}

func writeAged(t *testing.T, fs afero.Fs, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte("audio"), 0o644))
	mod := time.Now().Add(-age)
	require.NoError(t, fs.Chtimes(path, mod, mod))
}

func TestArtifactSweepRemovesStaleFiles(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t)
	writeAged(t, deps.FS, "downloads/old.mp3", 2*time.Hour)
	writeAged(t, deps.FS, "downloads/old.webm.part", 3*time.Hour)
	writeAged(t, deps.FS, "downloads/fresh.mp3", time.Minute)

	task := newArtifactSweepTask(deps)
	require.NoError(t, task(context.Background()))

	for path, want := range map[string]bool{
		"downloads/old.mp3":       false,
		"downloads/old.webm.part": false,
		"downloads/fresh.mp3":     true,
	} {
		exists, err := afero.Exists(deps.FS, path)
		require.NoError(t, err)
		assert.Equal(t, want, exists, path)
	}
}

func TestArtifactSweepKeepsDirectories(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t)
	require.NoError(t, deps.FS.MkdirAll("downloads/nested", 0o755))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, deps.FS.Chtimes("downloads/nested", old, old))

	require.NoError(t, newArtifactSweepTask(deps)(context.Background()))

	exists, err := afero.DirExists(deps.FS, "downloads/nested")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestArtifactSweepMissingDir(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t)
	assert.NoError(t, newArtifactSweepTask(deps)(context.Background()))
}

func TestArtifactSweepCancelled(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t)
	writeAged(t, deps.FS, "downloads/old.mp3", 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newArtifactSweepTask(deps)(ctx)
	require.ErrorIs(t, err, context.Canceled)

	exists, err := afero.Exists(deps.FS, "downloads/old.mp3")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(newTestDeps(t))
	assert.Len(t, tasks, 1)
	assert.Contains(t, tasks, "artifact_sweep")
}
