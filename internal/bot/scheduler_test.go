package bot

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/tubeaudiobot/internal/bot/tasks"
	"github.com/edgard/tubeaudiobot/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsEnabledTasksAtStart(t *testing.T) {
	t.Parallel()

	var sweeps, disabled atomic.Int32
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"artifact_sweep": {Enabled: true, Schedule: "0 0 0 1 1 *"},
		"other":          {Enabled: false, Schedule: "* * * * * *"},
		"unknown":        {Enabled: true, Schedule: "* * * * * *"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"artifact_sweep": func(context.Context) error { sweeps.Add(1); return nil },
		"other":          func(context.Context) error { disabled.Add(1); return nil },
	}

	s, err := NewScheduler(discardLogger(), cfg, taskMap)
	require.NoError(t, err)

	n, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Eventually(t, func() bool { return sweeps.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
	assert.Zero(t, disabled.Load())
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"artifact_sweep": {Enabled: true, Schedule: "not a cron"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"artifact_sweep": func(context.Context) error { return nil },
	}

	s, err := NewScheduler(discardLogger(), cfg, taskMap)
	require.NoError(t, err)

	n, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, s.Stop())
}

func TestSchedulerStartTwice(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(discardLogger(), nil, nil)
	require.NoError(t, err)

	_, err = s.Start(context.Background())
	require.NoError(t, err)
	_, err = s.Start(context.Background())
	require.ErrorIs(t, err, ErrSchedulerRunning)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}
