package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the alertsink server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Ingest   IngestConfig
	Report   ReportConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
	BaseURL  string
	Timeout  time.Duration
}

type IngestConfig struct {
	// DefaultSyncDays is the poll-sync lookback window when the request
	// does not override it.
	DefaultSyncDays int
	// SyncSchedule is a cron expression for in-process poll sync. Empty
	// disables the scheduler.
	SyncSchedule string
	// MinBlockLength filters bulk-import fragments shorter than this.
	MinBlockLength int
}

type ReportConfig struct {
	CacheTTL time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("ALERTSINK_PORT", 8080),
			Env:  envString("ALERTSINK_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   envInt64("TELEGRAM_CHAT_ID", 0),
			BaseURL:  envString("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			Timeout:  envDuration("TELEGRAM_TIMEOUT", 30*time.Second),
		},
		Ingest: IngestConfig{
			DefaultSyncDays: envInt("SYNC_DEFAULT_DAYS", 7),
			SyncSchedule:    os.Getenv("SYNC_SCHEDULE"),
			MinBlockLength:  envInt("IMPORT_MIN_BLOCK_LENGTH", 50),
		},
		Report: ReportConfig{
			CacheTTL: envDuration("REPORT_CACHE_TTL", 60*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	if !strings.HasPrefix(c.Telegram.BaseURL, "http://") && !strings.HasPrefix(c.Telegram.BaseURL, "https://") {
		return fmt.Errorf("TELEGRAM_API_BASE_URL must start with http:// or https://, got %q", c.Telegram.BaseURL)
	}

	if c.Ingest.DefaultSyncDays <= 0 {
		return fmt.Errorf("SYNC_DEFAULT_DAYS must be positive, got %d", c.Ingest.DefaultSyncDays)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
