package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/room-booking/internal/events"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config captures environment driven configuration values for the room booking service.
type Config struct {
	HTTPPort       int
	Storage        string
	SQLitePath     string
	OpenHour       int
	CloseHour      int
	MaxOccurrences int
	LockBackend    string
	RedisAddr      string
	RedisDB        int
	LockTTL        time.Duration
	KafkaBrokers   []string
	KafkaTopic     string
	LogLevel       slog.Level
}

// Load reads an optional .env file from the working directory and then parses the process
// environment.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads envFile when it exists and then parses the process environment. Variables
// already present in the environment win over the file.
//
// Defaults apply to every optional field. Missing and malformed entries are collected and
// reported together.
func LoadFrom(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:       8080,
		Storage:        StorageSQLite,
		SQLitePath:     "data/roombooking.db",
		OpenHour:       8,
		CloseHour:      20,
		MaxOccurrences: 366,
		LockBackend:    LockLocal,
		LockTTL:        10 * time.Second,
		KafkaTopic:     events.DefaultTopic,
		LogLevel:       slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	parseInt := func(key string, min, max int, dst *int) {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			return
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < min || n > max {
			invalid = append(invalid, key)
			return
		}
		*dst = n
	}

	parseInt("ROOMBOOKING_HTTP_PORT", 1, 65535, &cfg.HTTPPort)
	parseInt("ROOMBOOKING_OPEN_HOUR", 0, 24, &cfg.OpenHour)
	parseInt("ROOMBOOKING_CLOSE_HOUR", 0, 24, &cfg.CloseHour)
	parseInt("ROOMBOOKING_MAX_OCCURRENCES", 1, 100000, &cfg.MaxOccurrences)
	parseInt("ROOMBOOKING_REDIS_DB", 0, 15, &cfg.RedisDB)

	if cfg.OpenHour >= cfg.CloseHour {
		invalid = append(invalid, "ROOMBOOKING_OPEN_HOUR", "ROOMBOOKING_CLOSE_HOUR")
	}

	if storage := strings.ToLower(strings.TrimSpace(os.Getenv("ROOMBOOKING_STORAGE"))); storage != "" {
		switch storage {
		case StorageSQLite, StorageMemory:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "ROOMBOOKING_STORAGE")
		}
	}

	if path := strings.TrimSpace(os.Getenv("ROOMBOOKING_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if backend := strings.ToLower(strings.TrimSpace(os.Getenv("ROOMBOOKING_LOCK_BACKEND"))); backend != "" {
		switch backend {
		case LockLocal, LockRedis:
			cfg.LockBackend = backend
		default:
			invalid = append(invalid, "ROOMBOOKING_LOCK_BACKEND")
		}
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("ROOMBOOKING_REDIS_ADDR"))
	if cfg.LockBackend == LockRedis && cfg.RedisAddr == "" {
		missing = append(missing, "ROOMBOOKING_REDIS_ADDR")
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_LOCK_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROOMBOOKING_LOCK_TTL")
		} else {
			cfg.LockTTL = ttl
		}
	}

	cfg.KafkaBrokers = events.SplitBrokers(os.Getenv("ROOMBOOKING_KAFKA_BROKERS"))
	if topic := strings.TrimSpace(os.Getenv("ROOMBOOKING_KAFKA_TOPIC")); topic != "" {
		cfg.KafkaTopic = topic
	}

	if level := strings.TrimSpace(os.Getenv("ROOMBOOKING_LOG_LEVEL")); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			invalid = append(invalid, "ROOMBOOKING_LOG_LEVEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
