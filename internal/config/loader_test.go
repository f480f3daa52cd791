package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

const testHashKey = "0123456789abcdef0123456789abcdef"

func unsetAll(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ERM_HTTP_ADDR", "ERM_LOG_LEVEL", "ERM_DB_DRIVER", "ERM_DB_DSN",
		"ERM_SESSION_HASH_KEY", "ERM_SESSION_BLOCK_KEY", "ERM_SESSION_TTL",
		"ERM_HOUR_LIMITS", "ERM_PREMADE_CATEGORIES", "ERM_SYNC_CONFIG", "ERM_SYNC_INTERVAL",
		"ERM_SMS_URL", "ERM_SMS_LOGIN", "ERM_SMS_PASSWORD", "ERM_SMS_ORIGINATOR",
		"ERM_HTTP_CLIENT_TIMEOUT",
	} {
		// Setenv registers the restore; Unsetenv then clears the value.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("ERM_SESSION_HASH_KEY", testHashKey)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPAddr != ":8080" {
			t.Fatalf("expected default address :8080, got %q", cfg.HTTPAddr)
		}
		if cfg.DBDriver != "sqlite" || cfg.DBDSN != "file:erm.db?_pragma=foreign_keys(1)" {
			t.Fatalf("unexpected default database: %q %q", cfg.DBDriver, cfg.DBDSN)
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("expected info level, got %v", cfg.LogLevel)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		for i, limit := range cfg.HourLimits {
			if limit != DefaultHourLimit {
				t.Fatalf("expected default hour limit for month %d, got %d", i+1, limit)
			}
		}
		if cfg.SMS.Enabled() {
			t.Fatal("expected SMS to be disabled by default")
		}
		if cfg.SyncInterval != 0 {
			t.Fatalf("expected sync to be disabled, got %s", cfg.SyncInterval)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		unsetAll(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: ERM_SESSION_HASH_KEY"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and list fields", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("ERM_SESSION_HASH_KEY", testHashKey)
		t.Setenv("ERM_SESSION_BLOCK_KEY", "0123456789abcdef")
		t.Setenv("ERM_HTTP_ADDR", "127.0.0.1:9090")
		t.Setenv("ERM_LOG_LEVEL", "DEBUG")
		t.Setenv("ERM_DB_DRIVER", "postgres")
		t.Setenv("ERM_DB_DSN", "postgres://erm@localhost/erm")
		t.Setenv("ERM_SESSION_TTL", "24h")
		t.Setenv("ERM_HOUR_LIMITS", "136,152,160,168,144,160,184,184,168,176,160,176")
		t.Setenv("ERM_PREMADE_CATEGORIES", " Vacation, Sick leave ,,Training")
		t.Setenv("ERM_SYNC_INTERVAL", "15m")
		t.Setenv("ERM_SMS_URL", "https://sms.example.com/send")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.SessionTTL != 24*time.Hour {
			t.Fatalf("expected session TTL 24h, got %s", cfg.SessionTTL)
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("expected debug level, got %v", cfg.LogLevel)
		}
		if cfg.DBDriver != "postgres" {
			t.Fatalf("expected postgres driver, got %q", cfg.DBDriver)
		}
		if cfg.HourLimits[0] != 136 || cfg.HourLimits[11] != 176 {
			t.Fatalf("unexpected hour limits: %v", cfg.HourLimits)
		}
		if got := strings.Join(cfg.PremadeCategories, "|"); got != "Vacation|Sick leave|Training" {
			t.Fatalf("unexpected premade categories: %q", got)
		}
		if cfg.SyncInterval != 15*time.Minute {
			t.Fatalf("expected sync interval 15m, got %s", cfg.SyncInterval)
		}
		if !cfg.SMS.Enabled() {
			t.Fatal("expected SMS to be enabled")
		}
		if len(cfg.SessionBlockKey) != 16 {
			t.Fatalf("unexpected block key length %d", len(cfg.SessionBlockKey))
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("ERM_SESSION_HASH_KEY", "short")
		t.Setenv("ERM_DB_DRIVER", "mysql")
		t.Setenv("ERM_HOUR_LIMITS", "1,2,3")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		expected := "environment variables have invalid values: ERM_DB_DRIVER, ERM_SESSION_HASH_KEY, ERM_HOUR_LIMITS"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
