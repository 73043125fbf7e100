package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
)

func TestNewConnection_CreatesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cadence.db")

	conn, err := database.NewConnection(ctx, database.Config{SQLitePath: path})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.NoError(t, conn.Ping(ctx))
	assert.FileExists(t, path)
}

func TestConnection_Migrate(t *testing.T) {
	ctx := context.Background()

	conn, err := NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "cadence.db")})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Migrate(ctx))
	require.NoError(t, conn.Migrate(ctx), "migrations are idempotent")

	db := conn.(*Connection).DB()
	for _, table := range []string{"habits", "habit_metrics", "activity_logs", "log_points", "goals", "outbox"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	var foreignKeys int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}
