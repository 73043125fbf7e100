package queries

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/habits/infrastructure/cache"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

// GetGoalProgressQuery projects one goal.
type GetGoalProgressQuery struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	GoalID  uuid.UUID
	Today   domain.Day
}

// GoalProgressDTO is a goal projection and whether it came from the cache.
type GoalProgressDTO struct {
	HabitName string
	Goal      GoalDTO
	Cached    bool
}

// GetGoalProgressHandler serves goal projections through a ProgressCache.
// Cache failures are logged and the projection is computed instead.
type GetGoalProgressHandler struct {
	habitRepo domain.Repository
	cache     cache.ProgressCache
	metrics   observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewGetGoalProgressHandler creates a new GetGoalProgressHandler.
func NewGetGoalProgressHandler(habitRepo domain.Repository, progressCache cache.ProgressCache, metrics observability.Metrics, logger *slog.Logger) *GetGoalProgressHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GetGoalProgressHandler{
		habitRepo: habitRepo,
		cache:     progressCache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle executes the GetGoalProgressQuery.
func (h *GetGoalProgressHandler) Handle(ctx context.Context, query GetGoalProgressQuery) (*GoalProgressDTO, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "habits.get_goal_progress", func() (*GoalProgressDTO, error) {
		habit, err := findOwned(ctx, h.habitRepo, query.HabitID, query.UserID)
		if err != nil {
			return nil, err
		}
		goal, err := habit.Goal(query.GoalID)
		if err != nil {
			return nil, err
		}

		today := resolveDay(query.Today, h.now)
		key := cache.ProgressKey{
			HabitID: habit.ID(),
			Version: habit.Version(),
			GoalID:  goal.ID(),
			Day:     today,
		}

		progress, cached := h.lookup(ctx, key)
		if !cached {
			progress = domain.ProjectProgress(habit, goal, today)
			if err := h.cache.Set(ctx, key, progress); err != nil {
				h.logger.WarnContext(ctx, "failed to cache goal progress", "key", key.String(), "error", err)
			}
		}

		return &GoalProgressDTO{
			HabitName: habit.Name(),
			Goal:      toGoalDTO(goal, progress),
			Cached:    cached,
		}, nil
	})
}

func (h *GetGoalProgressHandler) lookup(ctx context.Context, key cache.ProgressKey) (domain.Progress, bool) {
	progress, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "progress cache read failed", "key", key.String(), "error", err)
		ok = false
	}
	if ok {
		h.metrics.Counter(observability.MetricProgressCacheHits, 1)
	} else {
		h.metrics.Counter(observability.MetricProgressCacheMisses, 1)
	}
	return progress, ok
}
