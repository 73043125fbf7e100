package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoTransaction is returned by Commit and Rollback when ctx carries no transaction.
var ErrNoTransaction = errors.New("no transaction in context")

// PostgresUnitOfWork provides transactional support for PostgreSQL.
// A Begin inside an existing transaction joins it; only the outermost
// unit commits or rolls back.
type PostgresUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewPostgresUnitOfWork creates a new PostgresUnitOfWork.
func NewPostgresUnitOfWork(pool *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{pool: pool}
}

// Begin starts a transaction and stores it in the context.
func (u *PostgresUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, info.Tx, false), nil
	}

	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

// Commit commits the transaction if this unit owns it.
func (u *PostgresUnitOfWork) Commit(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return whenOwned(info.Owned, func() error { return info.Tx.Commit(ctx) })
}

// Rollback rolls back the transaction if this unit owns it.
func (u *PostgresUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return whenOwned(info.Owned, func() error { return info.Tx.Rollback(ctx) })
}

// SQLiteUnitOfWork provides transactional support for SQLite with the same
// joining semantics as PostgresUnitOfWork.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

// NewSQLiteUnitOfWork creates a new SQLiteUnitOfWork.
func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

// Begin starts a transaction and stores it in the context.
func (u *SQLiteUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := SQLiteTxInfoFromContext(ctx); ok {
		return WithSQLiteTx(ctx, info.Tx, false), nil
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return WithSQLiteTx(ctx, tx, true), nil
}

// Commit commits the transaction if this unit owns it.
func (u *SQLiteUnitOfWork) Commit(ctx context.Context) error {
	info, ok := SQLiteTxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return whenOwned(info.Owned, info.Tx.Commit)
}

// Rollback rolls back the transaction if this unit owns it.
func (u *SQLiteUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := SQLiteTxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return whenOwned(info.Owned, info.Tx.Rollback)
}

func whenOwned(owned bool, fn func() error) error {
	if !owned {
		return nil
	}
	return fn()
}
