// Package cache stores goal progress projections keyed by habit version,
// so a write to the habit makes every older entry unreachable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// DefaultTTL bounds how long a projection is kept.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "cadence:progress"

// ProgressKey identifies one projection.
type ProgressKey struct {
	HabitID uuid.UUID
	Version int
	GoalID  uuid.UUID
	Day     domain.Day
}

func (k ProgressKey) String() string {
	return fmt.Sprintf("%s:%s:v%d:%s:%s", keyPrefix, k.HabitID, k.Version, k.GoalID, k.Day)
}

func habitIndexKey(habitID uuid.UUID) string {
	return fmt.Sprintf("%s:habit:%s", keyPrefix, habitID)
}

// ProgressCache stores projected goal progress.
type ProgressCache interface {
	// Get returns the cached projection and whether it was found.
	Get(ctx context.Context, key ProgressKey) (domain.Progress, bool, error)

	// Set stores a projection.
	Set(ctx context.Context, key ProgressKey, progress domain.Progress) error

	// InvalidateHabit drops every projection of a habit.
	InvalidateHabit(ctx context.Context, habitID uuid.UUID) error
}
