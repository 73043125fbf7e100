package outbox

import (
	"context"
	"errors"
	"time"
)

// ErrMessageNotFound is returned when an outbox message does not exist or
// is not in the state an operation requires.
var ErrMessageNotFound = errors.New("outbox message not found")

// Repository defines the interface for outbox persistence.
type Repository interface {
	// Save stores a new outbox message.
	Save(ctx context.Context, msg *Message) error

	// SaveBatch stores multiple outbox messages atomically. It joins the
	// transaction carried by ctx when there is one.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished retrieves deliverable messages ordered by creation time.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished marks a message as successfully published.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed records a publish failure and schedules the next attempt.
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error

	// MarkDead marks a message as dead-lettered.
	MarkDead(ctx context.Context, id int64, reason string) error

	// GetDead lists dead-lettered messages, newest first.
	GetDead(ctx context.Context, limit int) ([]*Message, error)

	// Requeue clears the dead-letter state of a message so it is retried.
	Requeue(ctx context.Context, id int64) error

	// CountPending counts messages that are neither published nor dead.
	CountPending(ctx context.Context) (int64, error)

	// DeleteOld removes published messages published before the cutoff.
	DeleteOld(ctx context.Context, before time.Time) (int64, error)
}
