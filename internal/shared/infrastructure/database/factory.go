package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds database configuration.
type Config struct {
	// Driver selects the backend. Empty or "auto" detects it from URL.
	Driver Driver

	// URL is the PostgreSQL connection string, or a sqlite:// URL.
	URL string

	// SQLitePath is the SQLite file. Defaults to ~/.cadence/cadence.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool size.
	MaxConns int
}

// Factory opens a connection for one driver.
type Factory func(ctx context.Context, cfg Config) (Connection, error)

var factories = map[Driver]Factory{}

// Register installs the connection factory for a driver. Driver packages
// call it from init, so importing them for side effects enables the driver.
func Register(driver Driver, factory Factory) {
	factories[driver] = factory
}

// NewConnection opens a connection for the configured or detected driver.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = DetectDriver(cfg.URL)
	}

	if driver == DriverSQLite && cfg.SQLitePath == "" && cfg.URL != "" {
		cfg.SQLitePath = SQLitePathFromURL(cfg.URL)
	}

	factory, ok := factories[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
	return factory(ctx, cfg)
}

// DefaultSQLitePath returns the default SQLite database path.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".cadence", "cadence.db")
}

// EnsureDirectory creates the parent directory for a file path if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
