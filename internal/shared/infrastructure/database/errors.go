package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrUnsupportedDriver is returned when no connection factory is registered for a driver.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// IsNoRows reports whether err means a single-row query found nothing,
// for both pgx and database/sql.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
