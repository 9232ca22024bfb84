package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Query engine. PageSize is fixed for the process lifetime and
	// injected into the goal service at startup.
	PageSize int

	// Outbound events. The dispatcher is only started when a webhook
	// URL is configured; events are parked in the outbox either way.
	EventWebhookURL       string
	EventWebhookSecret    string
	EventDispatchInterval time.Duration
	EventDispatchBatch    int

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "hourglass-goal-service"),
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "8085"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/goals.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		PageSize: envInt("PAGE_SIZE", 5),

		EventWebhookURL:       envString("EVENT_WEBHOOK_URL", ""),
		EventWebhookSecret:    envString("EVENT_WEBHOOK_SECRET", ""),
		EventDispatchInterval: envDuration("EVENT_DISPATCH_INTERVAL", 5*time.Second),
		EventDispatchBatch:    envInt("EVENT_DISPATCH_BATCH", 50),

		SentryDSN: envString("SENTRY_DSN", ""),
	}

	if cfg.PageSize < 1 {
		slog.Warn("PAGE_SIZE must be >= 1, using default", "value", cfg.PageSize)
		cfg.PageSize = 5
	}

	if cfg.EventWebhookURL != "" && cfg.EventWebhookSecret == "" {
		slog.Error("EVENT_WEBHOOK_URL requires EVENT_WEBHOOK_SECRET")
		os.Exit(1)
	}

	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
