package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the cobra notification bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Bot        BotConfig        `mapstructure:"bot" validate:"required"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage" validate:"required"`
	Chain      ChainConfig      `mapstructure:"chain" validate:"required"`
	I18n       I18nConfig       `mapstructure:"i18n"`
	Broadcasts BroadcastsConfig `mapstructure:"broadcasts"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

// BotConfig configures the Telegram connection.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"omitempty,oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the health/metrics HTTP listener.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects and configures the user directory backend.
type StorageConfig struct {
	Driver   string         `mapstructure:"driver" validate:"required,oneof=file postgres"`
	File     FileStorage    `mapstructure:"file"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// FileStorage points at the JSON snapshot file.
type FileStorage struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig carries the DSN pieces for the postgres directory backend.
type PostgresConfig struct {
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Name          string `mapstructure:"name"`
	SSLMode       string `mapstructure:"sslmode"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// DSN returns a PostgreSQL connection string based on config values.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// ChainConfig configures the contract event source.
type ChainConfig struct {
	ProviderURL    string        `mapstructure:"provider_url" validate:"required,url"`
	ContractFile   string        `mapstructure:"contract_file" validate:"required"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// I18nConfig configures the message catalog store.
type I18nConfig struct {
	Dir             string `mapstructure:"dir"`
	DefaultLanguage string `mapstructure:"default_language"`
	Watch           bool   `mapstructure:"watch"`
}

// BroadcastsConfig points at the one-shot broadcast schedule.
type BroadcastsConfig struct {
	File     string `mapstructure:"file"`
	Timezone string `mapstructure:"timezone"`
}

// NotifyConfig bounds outbound delivery.
type NotifyConfig struct {
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	RateLimit   int           `mapstructure:"rate_limit"`
	RateWindow  time.Duration `mapstructure:"rate_window"`
}

// RateLimitConfig throttles incoming Telegram updates per user.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Limit     int           `mapstructure:"limit"`
	Window    time.Duration `mapstructure:"window"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// RedisConfig enables the redis-backed rate limiter.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout <= 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.File.Path == "" {
		c.Storage.File.Path = "signed_users.json"
	}
	if c.Chain.PollInterval <= 0 {
		c.Chain.PollInterval = time.Second
	}
	if c.Chain.RequestTimeout <= 0 {
		c.Chain.RequestTimeout = 10 * time.Second
	}
	if c.I18n.Dir == "" {
		c.I18n.Dir = "i18n"
	}
	if c.I18n.DefaultLanguage == "" {
		c.I18n.DefaultLanguage = "en"
	}
	if c.Notify.SendTimeout <= 0 {
		c.Notify.SendTimeout = 15 * time.Second
	}
	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 20
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
}
