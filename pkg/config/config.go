package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/security"
	"github.com/joho/godotenv"
	uberconfig "go.uber.org/config"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `yaml:"app_env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
	UserID    string `yaml:"user_id"`

	// Database. The driver is sqlite unless a DATABASE_URL is given.
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	SQLitePath     string `yaml:"sqlite_path"`
	LocalMode      bool   `yaml:"local_mode"`

	// Redis. Empty keeps the progress cache in memory.
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RabbitMQ. Empty delivers events in process.
	RabbitMQURL string `yaml:"rabbitmq_url"`

	// Outbox
	OutboxPollInterval     time.Duration `yaml:"outbox_poll_interval"`
	OutboxBatchSize        int           `yaml:"outbox_batch_size"`
	OutboxMaxRetries       int           `yaml:"outbox_max_retries"`
	OutboxRetentionDays    int           `yaml:"outbox_retention_days"`
	OutboxProcessorEnabled bool          `yaml:"outbox_processor_enabled"`

	// Publisher circuit breaker
	BreakerFailureThreshold int           `yaml:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout"`

	// Worker
	WorkerHealthAddr string `yaml:"worker_health_addr"`
	RolloverSchedule string `yaml:"rollover_schedule"`
	CleanupSchedule  string `yaml:"cleanup_schedule"`
	ShareFeedSize    int    `yaml:"share_feed_size"`

	// Engine
	TrendPoints int `yaml:"trend_points"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		AppEnv:    "development",
		LogLevel:  "info",
		LogFormat: "text",
		UserID:    "00000000-0000-0000-0000-000000000001",

		DatabaseDriver: DriverSQLite,
		SQLitePath:     defaultSQLitePath(),
		LocalMode:      true,

		CacheTTL: 10 * time.Minute,

		OutboxPollInterval:     100 * time.Millisecond,
		OutboxBatchSize:        100,
		OutboxMaxRetries:       5,
		OutboxRetentionDays:    7,
		OutboxProcessorEnabled: true,

		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,

		WorkerHealthAddr: "0.0.0.0:8081",
		RolloverSchedule: "5 0 * * *",
		CleanupSchedule:  "30 3 * * *",
		ShareFeedSize:    100,

		TrendPoints: 21,
	}
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Default()
	cfg.applyEnv()
	return cfg.finish()
}

// LoadFile overlays a YAML file on the defaults, then applies environment
// variables on top. ${VAR} references inside the file are expanded.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	path, err := security.RequireRegularFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	provider, err := uberconfig.NewYAML(
		uberconfig.Static(Default()),
		uberconfig.File(path),
		uberconfig.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	cfg := &Config{}
	if err := provider.Get(uberconfig.Root).Populate(cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}
	cfg.applyEnv()
	return cfg.finish()
}

// finish resolves file paths and validates the result.
func (c *Config) finish() (*Config, error) {
	var err error
	if c.SQLitePath != "" {
		if c.SQLitePath, err = security.ResolvePath(c.SQLitePath); err != nil {
			return nil, fmt.Errorf("sqlite path: %w", err)
		}
	}
	if c.LogFile != "" {
		if c.LogFile, err = security.ResolvePath(c.LogFile); err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
	}
	return c, c.Validate()
}

// applyEnv overrides fields whose environment variable is set.
func (c *Config) applyEnv() {
	c.AppEnv = getEnv("CADENCE_ENV", getEnv("APP_ENV", c.AppEnv))
	c.LogLevel = getEnv("CADENCE_LOG_LEVEL", getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFormat = getEnv("CADENCE_LOG_FORMAT", c.LogFormat)
	c.LogFile = getEnv("CADENCE_LOG_FILE", c.LogFile)
	c.UserID = getEnv("CADENCE_USER_ID", c.UserID)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("CADENCE_SQLITE_PATH", c.SQLitePath)
	if c.DatabaseURL != "" {
		c.DatabaseDriver = DriverPostgres
	}
	c.DatabaseDriver = getEnv("DATABASE_DRIVER", c.DatabaseDriver)
	c.LocalMode = c.DatabaseDriver == DriverSQLite

	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.CacheTTL = getDurationEnv("CADENCE_CACHE_TTL", c.CacheTTL)
	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)

	c.OutboxPollInterval = getDurationEnv("OUTBOX_POLL_INTERVAL", c.OutboxPollInterval)
	c.OutboxBatchSize = getIntEnv("OUTBOX_BATCH_SIZE", c.OutboxBatchSize)
	c.OutboxMaxRetries = getIntEnv("OUTBOX_MAX_RETRIES", c.OutboxMaxRetries)
	c.OutboxRetentionDays = getIntEnv("OUTBOX_RETENTION_DAYS", c.OutboxRetentionDays)
	c.OutboxProcessorEnabled = getBoolEnv("OUTBOX_PROCESSOR_ENABLED", c.OutboxProcessorEnabled)

	c.BreakerFailureThreshold = getIntEnv("CADENCE_BREAKER_FAILURES", c.BreakerFailureThreshold)
	c.BreakerTimeout = getDurationEnv("CADENCE_BREAKER_TIMEOUT", c.BreakerTimeout)

	c.WorkerHealthAddr = getEnv("WORKER_HEALTH_ADDR", c.WorkerHealthAddr)
	c.RolloverSchedule = getEnv("CADENCE_ROLLOVER_SCHEDULE", c.RolloverSchedule)
	c.CleanupSchedule = getEnv("CADENCE_CLEANUP_SCHEDULE", c.CleanupSchedule)
	c.ShareFeedSize = getIntEnv("CADENCE_SHARE_FEED_SIZE", c.ShareFeedSize)

	c.TrendPoints = getIntEnv("CADENCE_TREND_POINTS", c.TrendPoints)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite driver needs a path")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres driver needs DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if c.OutboxBatchSize < 1 {
		return fmt.Errorf("outbox batch size must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxMaxRetries < 1 {
		return fmt.Errorf("outbox max retries must be positive, got %d", c.OutboxMaxRetries)
	}
	return nil
}

// OutboxRetention is the retention window as a duration.
func (c *Config) OutboxRetention() time.Duration {
	return time.Duration(c.OutboxRetentionDays) * 24 * time.Hour
}

// IsSQLite returns true if the SQLite driver is selected.
func (c *Config) IsSQLite() bool {
	return c.DatabaseDriver == DriverSQLite
}

// IsPostgres returns true if the PostgreSQL driver is selected.
func (c *Config) IsPostgres() bool {
	return c.DatabaseDriver == DriverPostgres
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cadence", "cadence.db")
	}
	return filepath.Join(home, ".cadence", "cadence.db")
}
