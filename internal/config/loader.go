package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// TokenEnv is the environment variable carrying the bot token.
const TokenEnv = "TELEGRAM_BOT_TOKEN"

// LoadConfig loads and validates configuration from, in increasing priority:
//  1. default values
//  2. the YAML file at configPath (optional)
//  3. BOT_* environment variables, and TELEGRAM_BOT_TOKEN for the token
//
// Variables found in envFile are exported first without overriding the
// existing environment. A missing envFile or configPath is not an error.
func LoadConfig(configPath, envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("%w: failed to load env file: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("telegram.token", TokenEnv, "BOT_TELEGRAM_TOKEN"); err != nil {
		return nil, fmt.Errorf("%w: failed to bind token env: %v", ErrConfiguration, err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
			slog.Debug("Config file not found, using defaults and environment", "path", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return gotenv.Load(path)
}

// setDefaults sets default values for every optional parameter
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", true)

	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("telegram.digest_chat", DefaultDigestChat)

	v.SetDefault("ledger.path", DefaultLedgerPath)
	v.SetDefault("ledger.digest_every", DefaultDigestEvery)

	v.SetDefault("media.binary", DefaultMediaBinary)
	v.SetDefault("media.download_dir", DefaultMediaDownloadDir)
	v.SetDefault("media.cookie_file", DefaultMediaCookieFile)
	v.SetDefault("media.audio_format", DefaultMediaAudioFormat)
	v.SetDefault("media.audio_quality", DefaultMediaAudioQuality)
	v.SetDefault("media.stale_after", DefaultMediaStaleAfter)

	v.SetDefault("scheduler.tasks.artifact_sweep.enabled", true)
	v.SetDefault("scheduler.tasks.artifact_sweep.schedule", DefaultSweepSchedule)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.received", DefaultMessages.Received)
	v.SetDefault("messages.fetch_failed", DefaultMessages.FetchFailed)
	v.SetDefault("messages.stats", DefaultMessages.Stats)
	v.SetDefault("messages.digest_caption", DefaultMessages.DigestCaption)
}
