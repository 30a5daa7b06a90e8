// Package config manages application configuration from a .env file,
// environment variables, an optional config file and default values.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration is returned when the configuration cannot be loaded or is invalid.
var ErrConfiguration = errors.New("configuration error")

// Config is the complete application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Media     MediaConfig     `mapstructure:"media"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credentials and the administrative destinations.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// AdminUserID may use admin commands. Zero disables them.
	AdminUserID int64 `mapstructure:"admin_user_id" validate:"gte=0"`
	// DigestChat receives the user ledger snapshot, either a numeric chat id or an @channel name.
	DigestChat string `mapstructure:"digest_chat" validate:"required"`
}

// LedgerConfig configures the persisted user list.
type LedgerConfig struct {
	Path        string `mapstructure:"path"         validate:"required"`
	DigestEvery int    `mapstructure:"digest_every" validate:"gt=0"`
}

// MediaConfig configures the audio fetcher and its working storage.
type MediaConfig struct {
	Binary       string        `mapstructure:"binary"        validate:"required"`
	DownloadDir  string        `mapstructure:"download_dir"  validate:"required"`
	CookieFile   string        `mapstructure:"cookie_file"`
	AudioFormat  string        `mapstructure:"audio_format"  validate:"required,oneof=mp3 m4a opus"`
	AudioQuality int           `mapstructure:"audio_quality" validate:"gt=0,lte=320"`
	StaleAfter   time.Duration `mapstructure:"stale_after"   validate:"min=1m"`
}

// SchedulerConfig lists the periodic maintenance tasks by registry name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-facing text.
type MessagesConfig struct {
	Welcome     string `mapstructure:"welcome"      validate:"required"`
	Help        string `mapstructure:"help"         validate:"required"`
	Received    string `mapstructure:"received"     validate:"required"`
	FetchFailed string `mapstructure:"fetch_failed" validate:"required"`
	// Stats is a fmt template receiving the user count.
	Stats         string `mapstructure:"stats"          validate:"required"`
	DigestCaption string `mapstructure:"digest_caption" validate:"required"`
}
