package database

import "strings"

// Driver represents a database backend type.
type Driver string

const (
	// DriverPostgres is the server backend.
	DriverPostgres Driver = "postgres"
	// DriverSQLite is the local, zero-config backend.
	DriverSQLite Driver = "sqlite"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	switch d {
	case DriverPostgres, DriverSQLite:
		return true
	default:
		return false
	}
}

// DetectDriver infers the driver from a connection string.
// An empty URL selects SQLite so the CLI works without configuration.
func DetectDriver(url string) Driver {
	if url == "" {
		return DriverSQLite
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}

	if strings.HasPrefix(url, "sqlite://") ||
		strings.HasPrefix(url, "file:") ||
		strings.HasSuffix(url, ".db") ||
		strings.HasSuffix(url, ".sqlite") ||
		strings.HasSuffix(url, ".sqlite3") {
		return DriverSQLite
	}

	return DriverPostgres
}

// SQLitePathFromURL strips a sqlite:// scheme so the remainder can be opened
// as a file path. Other URLs are returned unchanged.
func SQLitePathFromURL(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}
