package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// MemoryDatabase selects the in-process gateway instead of Postgres.
const MemoryDatabase = "memory"

// Config holds all configuration for the application
type Config struct {
	DatabaseURL         string
	MigrationsPath      string
	TelegramToken       string
	WebhookURL          string
	AppBaseURL          string
	JWTSecret           string
	SessionTTL          time.Duration
	LogLevel            string
	LogFile             string
	Port                string
	CORSOrigins         []string
	InviteRatePerMinute int
}

// UseMemory reports whether the in-memory gateway was requested.
func (c *Config) UseMemory() bool {
	return c.DatabaseURL == MemoryDatabase
}

// BotEnabled reports whether a Telegram token was supplied.
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// UseWebhook reports whether updates arrive by webhook instead of long polling.
func (c *Config) UseWebhook() bool {
	return c.BotEnabled() && c.WebhookURL != ""
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists. Every problem is reported at once.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		WebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		AppBaseURL:     strings.TrimRight(getEnvOrDefault("APP_BASE_URL", "http://localhost:3000"), "/"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
		Port:           getEnvOrDefault("PORT", "8080"),
		CORSOrigins:    splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
	}

	var errs *multierror.Error

	if cfg.DatabaseURL == "" {
		errs = multierror.Append(errs, fmt.Errorf("DATABASE_URL environment variable is required (use %q for the in-memory store)", MemoryDatabase))
	}
	if cfg.JWTSecret == "" {
		errs = multierror.Append(errs, fmt.Errorf("JWT_SECRET environment variable is required"))
	}

	ttl, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "720h"))
	if err != nil || ttl <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("SESSION_TTL must be a positive duration, got %q", os.Getenv("SESSION_TTL")))
	}
	cfg.SessionTTL = ttl

	rate, err := strconv.Atoi(getEnvOrDefault("INVITE_RATE_PER_MINUTE", "10"))
	if err != nil || rate <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("INVITE_RATE_PER_MINUTE must be a positive integer, got %q", os.Getenv("INVITE_RATE_PER_MINUTE")))
	}
	cfg.InviteRatePerMinute = rate

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
