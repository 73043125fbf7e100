package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunSQLiteMigrations applies pending SQLite migrations, each in its own transaction.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	migrations, err := Load("sqlite")
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var applied int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, m.Version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.Version, err)
		}
		if applied > 0 {
			continue
		}

		if err := applySQLite(ctx, db, m); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}
	}

	return nil
}

func applySQLite(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		m.Version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}
	return tx.Commit()
}
