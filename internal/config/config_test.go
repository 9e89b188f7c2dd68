package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "LOG_FILE", "POLL_TIMEOUT", "MAX_QUEUE_LENGTH",
		"ARCHIVE_BUFFER", "ROOM_IDLE_TTL", "REDIS_URL", "DATABASE_URL", "SQLITE_PATH",
		"RATE_LIMIT_WHITELIST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8000" {
		t.Errorf("expected port 8000, got %s", cfg.Port)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode by default")
	}
	if cfg.PollTimeout != 25*time.Second {
		t.Errorf("expected 25s poll timeout, got %s", cfg.PollTimeout)
	}
	if cfg.MaxQueueLength != 50 {
		t.Errorf("expected queue length 50, got %d", cfg.MaxQueueLength)
	}
	if cfg.RoomIdleTTL != time.Hour {
		t.Errorf("expected 1h idle TTL, got %s", cfg.RoomIdleTTL)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", cfg.Warnings)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("POLL_TIMEOUT", "5s")
	t.Setenv("MAX_QUEUE_LENGTH", "10")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 192.168.0.0/16,,")

	cfg := Load()

	if cfg.Port != "9000" || cfg.IsDevelopment() {
		t.Errorf("unexpected port/env: %s/%s", cfg.Port, cfg.Env)
	}
	if cfg.PollTimeout != 5*time.Second || cfg.MaxQueueLength != 10 {
		t.Errorf("unexpected relay settings: %s/%d", cfg.PollTimeout, cfg.MaxQueueLength)
	}
	if len(cfg.RateLimitWhitelist) != 2 || cfg.RateLimitWhitelist[1] != "192.168.0.0/16" {
		t.Errorf("unexpected whitelist: %v", cfg.RateLimitWhitelist)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLL_TIMEOUT", "soon")
	t.Setenv("MAX_QUEUE_LENGTH", "-3")

	cfg := Load()

	if cfg.PollTimeout != 25*time.Second || cfg.MaxQueueLength != 50 {
		t.Errorf("expected defaults, got %s/%d", cfg.PollTimeout, cfg.MaxQueueLength)
	}
	if len(cfg.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", cfg.Warnings)
	}
	if !strings.Contains(cfg.Warnings[0], "POLL_TIMEOUT") {
		t.Errorf("unexpected warning: %s", cfg.Warnings[0])
	}
}

func TestZeroIdleTTLDisablesReclamation(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROOM_IDLE_TTL", "0")

	if cfg := Load(); cfg.RoomIdleTTL >= 0 {
		t.Errorf("expected negative idle TTL, got %s", cfg.RoomIdleTTL)
	}
}
