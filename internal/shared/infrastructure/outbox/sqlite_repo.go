package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const sqliteOutboxColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count,
	last_error, dead_lettered_at, dead_letter_reason`

const sqliteInsertOutbox = `
	INSERT INTO outbox (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at, dead_lettered_at, dead_letter_reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, persistence.SQLiteExecutor(ctx, r.db), msg)
}

// SaveBatch stores multiple outbox messages atomically.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if info, ok := persistence.SQLiteTxInfoFromContext(ctx); ok {
		for _, msg := range msgs {
			if err := r.insert(ctx, info.Tx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, msg := range msgs {
		if err := r.insert(ctx, tx, msg); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) insert(ctx context.Context, q persistence.SQLiteDBTX, msg *Message) error {
	metadata := sql.NullString{String: string(msg.Metadata), Valid: len(msg.Metadata) > 0}
	result, err := q.ExecContext(ctx, sqliteInsertOutbox,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		metadata,
		persistence.FormatSQLiteTime(msg.CreatedAt),
		persistence.FormatSQLiteTimePtr(msg.NextRetryAt),
		persistence.FormatSQLiteTimePtr(msg.DeadLetteredAt),
		msg.DeadLetterReason,
	)
	if err != nil {
		return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	msg.ID = id
	return nil
}

// GetUnpublished retrieves deliverable messages ordered by creation time.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `SELECT ` + sqliteOutboxColumns + `
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, persistence.FormatSQLiteTime(r.now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteMessages(rows)
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`,
		persistence.FormatSQLiteTime(r.now()), id,
	)
	return err
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = ?,
			next_retry_at = ?
		WHERE id = ?`,
		errMsg, persistence.FormatSQLiteTime(nextRetryAt), id,
	)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox
		SET dead_lettered_at = ?,
			dead_letter_reason = ?,
			retry_count = retry_count + 1,
			last_error = ?
		WHERE id = ?`,
		persistence.FormatSQLiteTime(r.now()), reason, reason, id,
	)
	return err
}

// GetDead lists dead-lettered messages, newest first.
func (r *SQLiteRepository) GetDead(ctx context.Context, limit int) ([]*Message, error) {
	query := `SELECT ` + sqliteOutboxColumns + `
		FROM outbox
		WHERE dead_lettered_at IS NOT NULL
		ORDER BY dead_lettered_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteMessages(rows)
}

// Requeue clears the dead-letter state of a message so it is retried.
func (r *SQLiteRepository) Requeue(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE outbox
		SET dead_lettered_at = NULL,
			dead_letter_reason = NULL,
			retry_count = 0,
			next_retry_at = NULL
		WHERE id = ? AND dead_lettered_at IS NOT NULL`,
		id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, id)
}

// CountPending counts messages that are neither published nor dead.
func (r *SQLiteRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL AND dead_lettered_at IS NULL`,
	).Scan(&count)
	return count, err
}

// DeleteOld removes published messages published before the cutoff.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`,
		persistence.FormatSQLiteTime(before),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrMessageNotFound, id)
	}
	return nil
}

func scanSQLiteMessages(rows *sql.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var (
			msg                              Message
			eventID, aggregateID, payload    string
			createdAt                        string
			metadata, lastError, deadReason  sql.NullString
			publishedAt, nextRetryAt, deadAt sql.NullString
		)
		err := rows.Scan(
			&msg.ID,
			&eventID,
			&msg.AggregateType,
			&aggregateID,
			&msg.EventType,
			&msg.RoutingKey,
			&payload,
			&metadata,
			&createdAt,
			&publishedAt,
			&nextRetryAt,
			&msg.RetryCount,
			&lastError,
			&deadAt,
			&deadReason,
		)
		if err != nil {
			return nil, err
		}

		if msg.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, fmt.Errorf("outbox %d event_id: %w", msg.ID, err)
		}
		if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
			return nil, fmt.Errorf("outbox %d aggregate_id: %w", msg.ID, err)
		}
		if msg.CreatedAt, err = persistence.ParseSQLiteTime(createdAt); err != nil {
			return nil, fmt.Errorf("outbox %d created_at: %w", msg.ID, err)
		}
		msg.Payload = json.RawMessage(payload)
		if metadata.Valid {
			msg.Metadata = json.RawMessage(metadata.String)
		}
		if msg.PublishedAt, err = persistence.ParseSQLiteTimePtr(publishedAt); err != nil {
			return nil, err
		}
		if msg.NextRetryAt, err = persistence.ParseSQLiteTimePtr(nextRetryAt); err != nil {
			return nil, err
		}
		if msg.DeadLetteredAt, err = persistence.ParseSQLiteTimePtr(deadAt); err != nil {
			return nil, err
		}
		msg.LastError = nullStringPtr(lastError)
		msg.DeadLetterReason = nullStringPtr(deadReason)

		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
