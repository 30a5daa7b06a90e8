package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/tubeaudiobot/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(config.TokenEnv, "123456:token")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, "123456:token", cfg.Telegram.Token)
	assert.Equal(t, config.DefaultDigestChat, cfg.Telegram.DigestChat)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Logger.JSON)
	assert.Equal(t, "users.txt", cfg.Ledger.Path)
	assert.Equal(t, 50, cfg.Ledger.DigestEvery)
	assert.Equal(t, "downloads", cfg.Media.DownloadDir)
	assert.Equal(t, "www.youtube.com_cookies.txt", cfg.Media.CookieFile)
	assert.Equal(t, 192, cfg.Media.AudioQuality)
	assert.Equal(t, time.Hour, cfg.Media.StaleAfter)
	assert.Equal(t, config.DefaultMessages, cfg.Messages)

	sweep, ok := cfg.Scheduler.Tasks["artifact_sweep"]
	require.True(t, ok)
	assert.True(t, sweep.Enabled)
	assert.Equal(t, config.DefaultSweepSchedule, sweep.Schedule)
}

func TestLoadConfigMissingToken(t *testing.T) {
	t.Setenv(config.TokenEnv, "")

	_, err := config.LoadConfig("", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv(config.TokenEnv, "from-env")
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
log:
  level: debug
  json: false
telegram:
  admin_user_id: 99
  digest_chat: "-100200"
ledger:
  digest_every: 10
media:
  audio_quality: 128
  stale_after: 30m
messages:
  fetch_failed: "nope"
`)

	cfg, err := config.LoadConfig(path, "")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.False(t, cfg.Logger.JSON)
	assert.Equal(t, int64(99), cfg.Telegram.AdminUserID)
	assert.Equal(t, "-100200", cfg.Telegram.DigestChat)
	assert.Equal(t, 10, cfg.Ledger.DigestEvery)
	assert.Equal(t, 128, cfg.Media.AudioQuality)
	assert.Equal(t, 30*time.Minute, cfg.Media.StaleAfter)
	assert.Equal(t, "nope", cfg.Messages.FetchFailed)
	assert.Equal(t, config.DefaultMessages.Welcome, cfg.Messages.Welcome)
}

func TestLoadConfigEnvFile(t *testing.T) {
	// Registering the variable with t.Setenv restores it after gotenv exports it.
	t.Setenv(config.TokenEnv, "")
	require.NoError(t, os.Unsetenv(config.TokenEnv))

	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", config.TokenEnv+"=dotenv-token\n")

	cfg, err := config.LoadConfig("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.Telegram.Token)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown log level", yaml: "log:\n  level: verbose\n"},
		{name: "zero digest interval", yaml: "ledger:\n  digest_every: 0\n"},
		{name: "quality out of range", yaml: "media:\n  audio_quality: 1000\n"},
		{name: "unsupported format", yaml: "media:\n  audio_format: wav\n"},
		{name: "enabled task without schedule", yaml: "scheduler:\n  tasks:\n    artifact_sweep:\n      enabled: true\n      schedule: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.TokenEnv, "token")
			path := writeFile(t, t.TempDir(), "config.yaml", tt.yaml)

			_, err := config.LoadConfig(path, "")
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}
