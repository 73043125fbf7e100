package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for habit persistence.
//
// Every finder returns complete snapshots: the habit with its metric
// definitions, logs and goals, read consistently.
type Repository interface {
	// Save persists a habit and replaces its metrics, logs and goals.
	Save(ctx context.Context, habit *Habit) error

	// FindByID finds a habit by its ID. It returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Habit, error)

	// FindByUserID finds all habits for a user.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Habit, error)

	// FindActiveByUserID finds all non-archived habits for a user.
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*Habit, error)

	// FindAllActive finds every non-archived habit, across users.
	FindAllActive(ctx context.Context) ([]*Habit, error)

	// Delete removes a habit with its metrics, logs and goals.
	Delete(ctx context.Context, id uuid.UUID) error
}
