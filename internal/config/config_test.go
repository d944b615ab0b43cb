package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StorageBackend != "file" {
		t.Errorf("expected file backend, got %q", cfg.StorageBackend)
	}
	if cfg.ReminderWindowDays != 7 {
		t.Errorf("expected 7-day reminder window, got %d", cfg.ReminderWindowDays)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("REMINDER_WINDOW_DAYS", "not-a-number")

	cfg := config.Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.StorageBackend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.StorageBackend)
	}
	if cfg.JWTAccessTTL != 30*time.Minute {
		t.Errorf("expected 30m, got %v", cfg.JWTAccessTTL)
	}
	if cfg.ReminderWindowDays != 7 {
		t.Errorf("expected fallback on bad int, got %d", cfg.ReminderWindowDays)
	}
}

func TestLocation(t *testing.T) {
	cfg := &config.Config{Timezone: "Mars/Olympus"}
	if cfg.Location() != time.UTC {
		t.Error("expected UTC for an unknown zone")
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\nDATA_DIR=/tmp/factoring\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DATA_DIR", "")
	os.Unsetenv("DATA_DIR")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("DATA_DIR") })

	cfg := config.Load()
	if cfg.LogLevel != "warn" {
		t.Errorf("expected env to win, got %q", cfg.LogLevel)
	}
	if cfg.DataDir != "/tmp/factoring" {
		t.Errorf("expected DATA_DIR from file, got %q", cfg.DataDir)
	}
}
