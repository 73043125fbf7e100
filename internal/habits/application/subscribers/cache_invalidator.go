package subscribers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/habits/infrastructure/cache"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
)

// CacheInvalidator drops cached goal projections when a habit changes.
// Keys already carry the habit version, so this only reclaims space early.
type CacheInvalidator struct {
	cache  cache.ProgressCache
	logger *slog.Logger
}

// NewCacheInvalidator creates a new CacheInvalidator.
func NewCacheInvalidator(progressCache cache.ProgressCache, logger *slog.Logger) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidator{cache: progressCache, logger: logger}
}

// EventTypes returns the event types this subscriber handles.
func (s *CacheInvalidator) EventTypes() []string {
	return []string{
		domain.RoutingActivityLogged,
		domain.RoutingActivityDeleted,
		domain.RoutingGoalAdded,
		domain.RoutingGoalCompleted,
		domain.RoutingHabitArchived,
		domain.RoutingHabitUnarchived,
		domain.RoutingHabitDeleted,
	}
}

// Handle processes an event.
func (s *CacheInvalidator) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if err := s.cache.InvalidateHabit(ctx, event.AggregateID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate progress cache",
			"habit_id", event.AggregateID,
			"routing_key", event.RoutingKey,
			"error", err,
		)
		return err
	}
	s.logger.DebugContext(ctx, "progress cache invalidated",
		"habit_id", event.AggregateID,
		"routing_key", event.RoutingKey,
	)
	return nil
}
