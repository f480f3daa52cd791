package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultHourLimit is the monthly report limit applied when none is configured.
const DefaultHourLimit = 168

// Config captures environment driven configuration values for the erm service.
type Config struct {
	HTTPAddr          string
	LogLevel          slog.Level
	DBDriver          string
	DBDSN             string
	SessionHashKey    []byte
	SessionBlockKey   []byte
	SessionTTL        time.Duration
	HourLimits        [12]int
	PremadeCategories []string
	SyncConfigPath    string
	SyncInterval      time.Duration
	SMS               SMSConfig
	HTTPClientTimeout time.Duration
}

// SMSConfig configures the SMS gateway. An empty URL disables notifications.
type SMSConfig struct {
	URL        string
	Login      string
	Password   string
	Originator string
}

// Enabled reports whether a gateway URL is configured.
func (c SMSConfig) Enabled() bool {
	return c.URL != ""
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields and reports every missing
// or invalid variable in a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:          ":8080",
		LogLevel:          slog.LevelInfo,
		DBDriver:          "sqlite",
		DBDSN:             "file:erm.db?_pragma=foreign_keys(1)",
		SessionTTL:        12 * time.Hour,
		HTTPClientTimeout: 30 * time.Second,
	}
	for i := range cfg.HourLimits {
		cfg.HourLimits[i] = DefaultHourLimit
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if addr := env("ERM_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	if levelValue := env("ERM_LOG_LEVEL"); levelValue != "" {
		level, err := ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "ERM_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if driver := env("ERM_DB_DRIVER"); driver != "" {
		switch driver {
		case "sqlite", "postgres", "memory":
			cfg.DBDriver = driver
		default:
			invalid = append(invalid, "ERM_DB_DRIVER")
		}
	}

	if dsn := env("ERM_DB_DSN"); dsn != "" {
		cfg.DBDSN = dsn
	}

	if key := env("ERM_SESSION_HASH_KEY"); key == "" {
		missing = append(missing, "ERM_SESSION_HASH_KEY")
	} else if len(key) < 32 {
		invalid = append(invalid, "ERM_SESSION_HASH_KEY")
	} else {
		cfg.SessionHashKey = []byte(key)
	}

	if key := env("ERM_SESSION_BLOCK_KEY"); key != "" {
		switch len(key) {
		case 16, 24, 32:
			cfg.SessionBlockKey = []byte(key)
		default:
			invalid = append(invalid, "ERM_SESSION_BLOCK_KEY")
		}
	}

	if ttlValue := env("ERM_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ERM_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if limitsValue := env("ERM_HOUR_LIMITS"); limitsValue != "" {
		limits, err := parseHourLimits(limitsValue)
		if err != nil {
			invalid = append(invalid, "ERM_HOUR_LIMITS")
		} else {
			cfg.HourLimits = limits
		}
	}

	if categories := env("ERM_PREMADE_CATEGORIES"); categories != "" {
		cfg.PremadeCategories = splitList(categories)
	}

	cfg.SyncConfigPath = env("ERM_SYNC_CONFIG")

	if intervalValue := env("ERM_SYNC_INTERVAL"); intervalValue != "" {
		interval, err := time.ParseDuration(intervalValue)
		if err != nil || interval < 0 {
			invalid = append(invalid, "ERM_SYNC_INTERVAL")
		} else {
			cfg.SyncInterval = interval
		}
	}

	cfg.SMS = SMSConfig{
		URL:        env("ERM_SMS_URL"),
		Login:      env("ERM_SMS_LOGIN"),
		Password:   env("ERM_SMS_PASSWORD"),
		Originator: env("ERM_SMS_ORIGINATOR"),
	}

	if timeoutValue := env("ERM_HTTP_CLIENT_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "ERM_HTTP_CLIENT_TIMEOUT")
		} else {
			cfg.HTTPClientTimeout = timeout
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(value)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
	return level, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseHourLimits(value string) ([12]int, error) {
	var limits [12]int
	parts := strings.Split(value, ",")
	if len(parts) != len(limits) {
		return limits, fmt.Errorf("expected %d hour limits, got %d", len(limits), len(parts))
	}
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return limits, fmt.Errorf("invalid hour limit %q", part)
		}
		limits[i] = n
	}
	return limits, nil
}

func splitList(value string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
