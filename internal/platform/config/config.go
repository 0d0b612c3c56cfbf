package config

import (
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MaxSourceTimeout bounds the rate source HTTP timeout.
const MaxSourceTimeout = 30 * time.Second

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	StorageDriver  string `validate:"oneof=postgres memory"`
	RunMigrations  bool
	MigrationsPath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`
	RedisKeyPrefix string

	Port               string `validate:"required,numeric"`
	IsProduction       bool
	LogLevel           string
	CORSAllowedOrigins []string
	OpsRateLimit       string `validate:"required"`

	RateSourceName       string `validate:"required"`
	RateSourceURL        string `validate:"required,url"`
	RateSourceTimeout    time.Duration
	RateSourceCurrencies []string

	CollectionInterval       time.Duration `validate:"gt=0"`
	CollectionErrorBackoff   time.Duration `validate:"gte=0"`
	MaintenanceCheckInterval time.Duration `validate:"gt=0"`
	CleanupInterval          time.Duration `validate:"gt=0"`
	AggregateInterval        time.Duration `validate:"gt=0"`
	RetentionDays            int           `validate:"gt=0"`

	BatchChunkSize  int `validate:"gt=0"`
	BatchChunkPause time.Duration

	DedupWindow    time.Duration `validate:"gt=0"`
	DedupTolerance float64       `validate:"gt=0,lt=1"`

	CacheRateTTL time.Duration `validate:"gt=0"`
	CacheInfoTTL time.Duration `validate:"gt=0"`

	DispatchQueueSize int `validate:"gt=0"`
	DispatchWorkers   int `validate:"gt=0"`
	ShutdownGrace     time.Duration
}

// Retention returns RetentionDays as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

var durationDefaults = map[string]time.Duration{
	"RATE_SOURCE_TIMEOUT":        10 * time.Second,
	"COLLECTION_INTERVAL":        5 * time.Minute,
	"COLLECTION_ERROR_BACKOFF":   60 * time.Second,
	"MAINTENANCE_CHECK_INTERVAL": 60 * time.Second,
	"CLEANUP_INTERVAL":           24 * time.Hour,
	"AGGREGATE_INTERVAL":         time.Hour,
	"BATCH_CHUNK_PAUSE":          100 * time.Millisecond,
	"DEDUP_WINDOW":               10 * time.Minute,
	"CACHE_RATE_TTL":             10 * time.Minute,
	"CACHE_INFO_TTL":             time.Hour,
	"SHUTDOWN_GRACE":             5 * time.Second,
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("OPS_RATE_LIMIT", "60-M")
	v.SetDefault("RATE_SOURCE_NAME", "exchangerate-api")
	v.SetDefault("RATE_SOURCE_URL", "https://api.exchangerate-api.com/v4/latest/KRW")
	v.SetDefault("RATE_SOURCE_CURRENCIES", "")
	v.SetDefault("RETENTION_DAYS", 365)
	v.SetDefault("BATCH_CHUNK_SIZE", 100)
	v.SetDefault("DEDUP_TOLERANCE", 0.001)
	v.SetDefault("DISPATCH_QUEUE_SIZE", 1024)
	v.SetDefault("DISPATCH_WORKERS", 2)
	for key, def := range durationDefaults {
		v.SetDefault(key, def.String())
	}

	// Environment variables override .env values and defaults.
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    v.GetString("PGSQL_URL"),
		StorageDriver:  strings.ToLower(v.GetString("STORAGE_DRIVER")),
		RunMigrations:  v.GetBool("RUN_MIGRATIONS"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		RedisKeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		OpsRateLimit:   v.GetString("OPS_RATE_LIMIT"),
		RateSourceName: v.GetString("RATE_SOURCE_NAME"),
		RateSourceURL:  v.GetString("RATE_SOURCE_URL"),
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"), false)
	cfg.RateSourceCurrencies = splitList(v.GetString("RATE_SOURCE_CURRENCIES"), true)

	cfg.RateSourceTimeout = durationOrDefault(v, "RATE_SOURCE_TIMEOUT")
	if cfg.RateSourceTimeout > MaxSourceTimeout {
		log.Printf("Warning: RATE_SOURCE_TIMEOUT (%s) exceeds %s. Clamping.\n", cfg.RateSourceTimeout, MaxSourceTimeout)
		cfg.RateSourceTimeout = MaxSourceTimeout
	}
	cfg.CollectionInterval = durationOrDefault(v, "COLLECTION_INTERVAL")
	cfg.CollectionErrorBackoff = durationOrDefault(v, "COLLECTION_ERROR_BACKOFF")
	cfg.MaintenanceCheckInterval = durationOrDefault(v, "MAINTENANCE_CHECK_INTERVAL")
	cfg.CleanupInterval = durationOrDefault(v, "CLEANUP_INTERVAL")
	cfg.AggregateInterval = durationOrDefault(v, "AGGREGATE_INTERVAL")
	cfg.BatchChunkPause = durationOrDefault(v, "BATCH_CHUNK_PAUSE")
	cfg.DedupWindow = durationOrDefault(v, "DEDUP_WINDOW")
	cfg.CacheRateTTL = durationOrDefault(v, "CACHE_RATE_TTL")
	cfg.CacheInfoTTL = durationOrDefault(v, "CACHE_INFO_TTL")
	cfg.ShutdownGrace = durationOrDefault(v, "SHUTDOWN_GRACE")

	cfg.RetentionDays = positiveIntOrDefault(v, "RETENTION_DAYS", 365)
	cfg.BatchChunkSize = positiveIntOrDefault(v, "BATCH_CHUNK_SIZE", 100)
	cfg.DispatchQueueSize = positiveIntOrDefault(v, "DISPATCH_QUEUE_SIZE", 1024)
	cfg.DispatchWorkers = positiveIntOrDefault(v, "DISPATCH_WORKERS", 2)

	cfg.DedupTolerance = v.GetFloat64("DEDUP_TOLERANCE")
	if cfg.DedupTolerance <= 0 || cfg.DedupTolerance >= 1 {
		log.Printf("Warning: Invalid value for DEDUP_TOLERANCE ('%s'). Defaulting to 0.001.\n", v.GetString("DEDUP_TOLERANCE"))
		cfg.DedupTolerance = 0.001
	}

	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func durationOrDefault(v *viper.Viper, key string) time.Duration {
	def := durationDefaults[key]
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		return def
	}
	return d
}

func positiveIntOrDefault(v *viper.Viper, key string, def int) int {
	n := v.GetInt(key)
	if n <= 0 {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %d.\n", key, v.GetString(key), def)
		return def
	}
	return n
}

func splitList(raw string, upper bool) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if upper {
			part = strings.ToUpper(part)
		}
		out = append(out, part)
	}
	return out
}
