package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jdelaire/autoapprove/internal/keychain"
)

var (
	// ErrMissingToken means no bot token was found in the environment or keychain.
	ErrMissingToken = errors.New("BOT_TOKEN is not set")
	// ErrMissingURL means the public base URL for the webhook is not set.
	ErrMissingURL = errors.New("URL is not set")
)

// Config holds process-wide settings. It is loaded once at startup.
type Config struct {
	BotToken   string `mapstructure:"bot_token"`
	PublicURL  string `mapstructure:"url"`
	ListenAddr string `mapstructure:"listen_addr"`
	APIBaseURL string `mapstructure:"api_base_url"`
	ChannelURL string `mapstructure:"channel_url"`
	LogLevel   string `mapstructure:"log_level"`
	SentryDSN  string `mapstructure:"sentry_dsn"`
	Tracing    bool   `mapstructure:"tracing"`
}

// Load reads envFile (if it exists) into the environment, then builds the
// configuration from environment variables, an optional autoapprove config
// file in the working directory, and defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName("autoapprove")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("bot_token", "")
	v.SetDefault("url", "")
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("api_base_url", "https://api.telegram.org")
	v.SetDefault("channel_url", "https://t.me/anuj_bots")
	v.SetDefault("log_level", "info")
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("tracing", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.BotToken == "" {
		cfg.BotToken = keychain.BotToken()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return ErrMissingToken
	}
	if c.PublicURL == "" {
		return ErrMissingURL
	}
	return nil
}

// WebhookPath is the local route Telegram posts updates to.
func (c *Config) WebhookPath() string {
	return "/webhook/" + c.BotToken
}

// WebhookURL is the public address registered with setWebhook.
func (c *Config) WebhookURL() string {
	return strings.TrimSuffix(c.PublicURL, "/") + c.WebhookPath()
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
