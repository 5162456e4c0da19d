//go:build !integration

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "PORT", "LOG_LEVEL", "LOG_FORMAT", "STORE_DRIVER", "STORE_DIR",
	"REDIS_URL", "REDIS_PASSWORD", "REDIS_DB", "DATABASE_URL", "BOT_WORKERS", "BOT_METRICS_PORT",
	"BOT_LANGUAGE", "BOT_DISPLAY_STYLE", "BOT_EDIT_DELAY", "BOT_RATE_LIMIT", "REPORT_UTC_OFFSET",
	"DASHBOARD_API_KEY",
}

// clearEnv unsets every variable LoadConfig reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
}

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(missingPath(t), false)
	if err != nil {
		t.Fatalf("expected no error for missing config file, got %v", err)
	}
	if cfg.Web.Port != DefaultPort {
		t.Errorf("expected default port %d, got %d", DefaultPort, cfg.Web.Port)
	}
	if cfg.Addr() != ":10000" {
		t.Errorf("expected addr :10000, got %s", cfg.Addr())
	}
	if cfg.Store.Driver != StoreFile {
		t.Errorf("expected file store by default, got %s", cfg.Store.Driver)
	}
	if cfg.Bot.EditDelay != DefaultEditDelay {
		t.Errorf("expected edit delay %s, got %s", DefaultEditDelay, cfg.Bot.EditDelay)
	}
	if cfg.Report.MinMinutes != 5 || cfg.Report.MaxMinutes != 32 {
		t.Errorf("unexpected interval bounds %d..%d", cfg.Report.MinMinutes, cfg.Report.MaxMinutes)
	}
	_, offset := time.Date(2024, 1, 1, 12, 0, 0, 0, cfg.ReportLocation()).Zone()
	if offset != 3600 {
		t.Errorf("expected UTC+1 report zone, got offset %d", offset)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "  123:abc  ")
	t.Setenv("PORT", "8081")
	t.Setenv("BOT_EDIT_DELAY", "5s")
	t.Setenv("REPORT_UTC_OFFSET", "0")

	cfg, err := LoadConfig(missingPath(t), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "123:abc" {
		t.Errorf("expected trimmed token, got %q", cfg.Bot.Token)
	}
	if cfg.Web.Port != 8081 {
		t.Errorf("expected port from PORT, got %d", cfg.Web.Port)
	}
	if cfg.Bot.EditDelay != 5*time.Second {
		t.Errorf("expected 5s edit delay, got %s", cfg.Bot.EditDelay)
	}
	if *cfg.Report.UTCOffsetHours != 0 {
		t.Errorf("expected explicit zero offset to be kept, got %d", *cfg.Report.UTCOffsetHours)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "bot:\n  token: from-file\n  display_style: 2\nweb:\n  port: 9000\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "from-file" {
		t.Errorf("expected token from file, got %q", cfg.Bot.Token)
	}
	if cfg.Web.Port != 9100 {
		t.Errorf("expected env to win over file, got %d", cfg.Web.Port)
	}
	if cfg.Bot.DisplayStyle != 2 || cfg.Log.Level != "debug" || !cfg.Runtime.Dev {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestLoadConfigStoreValidation(t *testing.T) {
	clearEnv(t)

	t.Run("redis without url", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "redis")
		if _, err := LoadConfig(missingPath(t), false); err == nil {
			t.Fatal("expected an error for redis without url")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")
		if _, err := LoadConfig(missingPath(t), false); err == nil {
			t.Fatal("expected an error for unknown driver")
		}
	})

	t.Run("postgres with url", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "Postgres")
		t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
		cfg, err := LoadConfig(missingPath(t), false)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Store.Driver != StorePostgres {
			t.Errorf("expected normalised driver, got %q", cfg.Store.Driver)
		}
	})

	t.Run("memory needs nothing", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		cfg, err := LoadConfig(missingPath(t), false)
		if err != nil || cfg.Store.Driver != StoreMemory {
			t.Fatalf("LoadConfig = %v, %v", cfg, err)
		}
	})
}

func TestLoadConfigMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bot: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateBot(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(missingPath(t), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if err := cfg.ValidateBot(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	cfg.Bot.Token = "   "
	if err := cfg.ValidateBot(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken for blank token, got %v", err)
	}

	cfg.Bot.Token = "123:abc"
	if err := cfg.ValidateBot(); err != nil {
		t.Fatalf("expected valid bot config, got %v", err)
	}

	cfg.Report.MinMinutes = 40
	if err := cfg.ValidateBot(); err == nil {
		t.Fatal("expected error for inverted interval bounds")
	}
}

func TestValidateWeb(t *testing.T) {
	cfg := &Config{Web: WebConfig{Port: 10000}}
	if err := cfg.ValidateWeb(); err != nil {
		t.Fatalf("expected valid port, got %v", err)
	}
	for _, p := range []int{-1, 0, 70000} {
		cfg.Web.Port = p
		if err := cfg.ValidateWeb(); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("port %d: expected ErrInvalidPort, got %v", p, err)
		}
	}
}
