package database

import "context"

// Connection is an open database handle for one driver.
//
// Repositories never query through it directly; the repository factory
// unwraps the driver-native handle (*sql.DB or *pgxpool.Pool).
type Connection interface {
	// Driver returns the driver type for this connection.
	Driver() Driver
	// Ping verifies the connection is still alive.
	Ping(ctx context.Context) error
	// Migrate brings the schema up to date. Migrations are idempotent.
	Migrate(ctx context.Context) error
	// Close closes the database connection.
	Close() error
}
