package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string
	Env      string
	LogLevel string
	LogFile  string

	// Relay
	PollTimeout    time.Duration
	MaxQueueLength int
	RoomIdleTTL    time.Duration // negative disables reclamation

	// Optional stores. The relay runs without any of them.
	RedisURL      string
	DatabaseURL   string
	SQLitePath    string
	ArchiveBuffer int

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting

	// Warnings collects malformed values that fell back to defaults.
	Warnings []string
}

// Load reads configuration from environment variables.
// It loads a .env file first if one is present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     os.Getenv("LOG_FILE"),
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
	}

	cfg.PollTimeout = cfg.duration("POLL_TIMEOUT", 25*time.Second)
	cfg.MaxQueueLength = cfg.positiveInt("MAX_QUEUE_LENGTH", 50)
	cfg.ArchiveBuffer = cfg.positiveInt("ARCHIVE_BUFFER", 1024)

	cfg.RoomIdleTTL = cfg.duration("ROOM_IDLE_TTL", time.Hour)
	if cfg.RoomIdleTTL == 0 {
		cfg.RoomIdleTTL = -1
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a valid duration, using %s", key, raw, def))
		return def
	}
	return d
}

func (c *Config) positiveInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a positive integer, using %d", key, raw, def))
		return def
	}
	return n
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
