package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresOutboxColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count,
	last_error, dead_lettered_at, dead_letter_reason`

const postgresInsertOutbox = `
	INSERT INTO outbox (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at, dead_lettered_at, dead_letter_reason
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id
`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL outbox repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func insertArgs(msg *Message) []any {
	var metadata any
	if len(msg.Metadata) > 0 {
		metadata = msg.Metadata
	}
	return []any{
		msg.EventID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.RoutingKey,
		msg.Payload,
		metadata,
		msg.CreatedAt,
		msg.NextRetryAt,
		msg.DeadLetteredAt,
		msg.DeadLetterReason,
	}
}

// Save stores a new outbox message.
func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	execer := persistence.Executor(ctx, r.pool)
	if err := execer.QueryRow(ctx, postgresInsertOutbox, insertArgs(msg)...).Scan(&msg.ID); err != nil {
		return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
	}
	return nil
}

// SaveBatch stores multiple outbox messages atomically. The inserts are
// pipelined in a single batch.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, ok := persistence.TxInfoFromContext(ctx); ok {
		return r.sendBatch(ctx, persistence.Executor(ctx, r.pool), msgs)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.sendBatch(ctx, tx, msgs)
	})
}

func (r *PostgresRepository) sendBatch(ctx context.Context, execer persistence.DBExecutor, msgs []*Message) error {
	batch := &pgx.Batch{}
	for _, msg := range msgs {
		batch.Queue(postgresInsertOutbox, insertArgs(msg)...)
	}

	results := execer.SendBatch(ctx, batch)
	for _, msg := range msgs {
		if err := results.QueryRow().Scan(&msg.ID); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
		}
	}
	return results.Close()
}

// GetUnpublished retrieves deliverable messages ordered by creation time.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `SELECT ` + postgresOutboxColumns + `
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at, id
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPostgresMessage)
}

// MarkPublished marks a message as successfully published.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE outbox SET published_at = NOW(), dead_lettered_at = NULL WHERE id = $1`, id)
	return err
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = $2,
			next_retry_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, errMsg, nextRetryAt)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE outbox
		SET dead_lettered_at = NOW(),
			dead_letter_reason = $2,
			retry_count = retry_count + 1,
			last_error = $2
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, reason)
	return err
}

// GetDead lists dead-lettered messages, newest first.
func (r *PostgresRepository) GetDead(ctx context.Context, limit int) ([]*Message, error) {
	query := `SELECT ` + postgresOutboxColumns + `
		FROM outbox
		WHERE dead_lettered_at IS NOT NULL
		ORDER BY dead_lettered_at DESC, id DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPostgresMessage)
}

// Requeue clears the dead-letter state of a message so it is retried.
func (r *PostgresRepository) Requeue(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox
		SET dead_lettered_at = NULL,
			dead_letter_reason = NULL,
			retry_count = 0,
			next_retry_at = NULL
		WHERE id = $1 AND dead_lettered_at IS NOT NULL
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrMessageNotFound, id)
	}
	return nil
}

// CountPending counts messages that are neither published nor dead.
func (r *PostgresRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL AND dead_lettered_at IS NULL`,
	).Scan(&count)
	return count, err
}

// DeleteOld removes published messages published before the cutoff.
func (r *PostgresRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPostgresMessage(row pgx.CollectableRow) (*Message, error) {
	var msg Message
	err := row.Scan(
		&msg.ID,
		&msg.EventID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.EventType,
		&msg.RoutingKey,
		&msg.Payload,
		&msg.Metadata,
		&msg.CreatedAt,
		&msg.PublishedAt,
		&msg.NextRetryAt,
		&msg.RetryCount,
		&msg.LastError,
		&msg.DeadLetteredAt,
		&msg.DeadLetterReason,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
