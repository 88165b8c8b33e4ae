package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	AccessPublic    = "public"
	AccessAllowList = "allowlist"
)

type Config struct {
	Token       string        // Telegram bot token; empty = bot disabled
	PollTimeout time.Duration // long poll timeout

	LogLevel  string // debug|info|warn|error
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CatalogFile string // optional YAML catalog, empty = built-in catalog

	Visits VisitsConfig

	StatsAccess   string   // public|allowlist
	StatsAdminIDs []string // visitor ids allowed to read /stats and /debug

	HTTPAddr string // health endpoints, empty = disabled
}

type VisitsConfig struct {
	Backend       string // file|sqlite|redis
	File          string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("error while loading .env file: %v", err)
	}

	access := strings.ToLower(cast.ToString(coalesce("STATS_ACCESS", "")))
	admins := splitAndTrim(cast.ToString(coalesce("STATS_ADMIN_IDS", "")))
	if access == "" {
		access = AccessPublic
		if len(admins) > 0 {
			access = AccessAllowList
		}
	}

	return &Config{
		Token:       cast.ToString(coalesce("TELEGRAM_TOKEN", "")),
		PollTimeout: toDuration("POLL_TIMEOUT", 10*time.Second),

		LogLevel:  cast.ToString(coalesce("LOG_LEVEL", "info")),
		PrettyLog: cast.ToBool(coalesce("LOG_PRETTY", false)),

		CatalogFile: cast.ToString(coalesce("CATALOG_FILE", "")),

		Visits: VisitsConfig{
			Backend:       strings.ToLower(cast.ToString(coalesce("VISITS_BACKEND", BackendFile))),
			File:          cast.ToString(coalesce("VISITS_FILE", "./visitors.txt")),
			SQLitePath:    cast.ToString(coalesce("VISITS_SQLITE_PATH", "./visits.db")),
			RedisAddr:     cast.ToString(coalesce("VISITS_REDIS_ADDR", "localhost:6379")),
			RedisPassword: cast.ToString(coalesce("VISITS_REDIS_PASSWORD", "")),
			RedisDB:       toInt("VISITS_REDIS_DB", 0),
			RedisKey:      cast.ToString(coalesce("VISITS_REDIS_KEY", "planbot:visits")),
		},

		StatsAccess:   access,
		StatsAdminIDs: admins,

		HTTPAddr: cast.ToString(coalesce("HTTP_ADDR", "")),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Visits.Backend {
	case BackendFile:
		if c.Visits.File == "" {
			return fmt.Errorf("VISITS_FILE must not be empty")
		}
	case BackendSQLite:
		if c.Visits.SQLitePath == "" {
			return fmt.Errorf("VISITS_SQLITE_PATH must not be empty")
		}
	case BackendRedis:
		if c.Visits.RedisAddr == "" || c.Visits.RedisKey == "" {
			return fmt.Errorf("VISITS_REDIS_ADDR and VISITS_REDIS_KEY must not be empty")
		}
	default:
		return fmt.Errorf("unknown VISITS_BACKEND %q", c.Visits.Backend)
	}

	switch c.StatsAccess {
	case AccessPublic:
	case AccessAllowList:
		if len(c.StatsAdminIDs) == 0 {
			return fmt.Errorf("STATS_ACCESS=allowlist requires STATS_ADMIN_IDS")
		}
	default:
		return fmt.Errorf("unknown STATS_ACCESS %q", c.StatsAccess)
	}

	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive")
	}
	return nil
}

func coalesce(key string, value interface{}) interface{} {
	val, exist := os.LookupEnv(key)
	if exist {
		return val
	}
	return value
}

func toDuration(key string, def time.Duration) time.Duration {
	d, err := cast.ToDurationE(coalesce(key, def))
	if err != nil {
		log.Printf("invalid %s, using default %s: %v", key, def, err)
		return def
	}
	return d
}

func toInt(key string, def int) int {
	n, err := cast.ToIntE(coalesce(key, def))
	if err != nil {
		log.Printf("invalid %s, using default %d: %v", key, def, err)
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.Trim(strings.TrimSpace(part), `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
