package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

// BrokenStreak describes one streak the watcher reported.
type BrokenStreak struct {
	HabitID    uuid.UUID
	UserID     uuid.UUID
	LastStreak int
	MissedDay  domain.Day
}

// StreakWatcher runs once a day after rollover and reports streaks that ended
// because yesterday had no log.
type StreakWatcher struct {
	habitRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewStreakWatcher creates a new StreakWatcher.
func NewStreakWatcher(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, metrics observability.Metrics, logger *slog.Logger) *StreakWatcher {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StreakWatcher{
		habitRepo:  habitRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		metrics:    metrics,
		logger:     logger,
	}
}

// Check inspects every active habit on today. A habit whose streak ran
// through the day before yesterday but has no log yesterday gets a
// habits.streak.broken event. Each habit is handled in its own transaction;
// failures are collected and the remaining habits are still checked.
func (w *StreakWatcher) Check(ctx context.Context, today domain.Day) ([]BrokenStreak, error) {
	habits, err := w.habitRepo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("find active habits: %w", err)
	}

	missed := today.AddDays(-1)
	broken := make([]BrokenStreak, 0)
	var errs []error

	for _, habit := range habits {
		streak, ok := BrokenStreakOf(habit, today)
		if !ok {
			continue
		}
		if err := w.report(ctx, habit, streak); err != nil {
			w.logger.ErrorContext(ctx, "failed to report broken streak",
				"habit_id", habit.ID(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("habit %s: %w", habit.ID(), err))
			continue
		}
		broken = append(broken, streak)
		w.metrics.Counter(observability.MetricStreaksBroken, 1)
	}

	w.logger.InfoContext(ctx, "streak check completed",
		"day", today.String(),
		"missed_day", missed.String(),
		"habits", len(habits),
		"broken", len(broken),
	)
	return broken, errors.Join(errs...)
}

// BrokenStreakOf reports whether the habit's streak broke yesterday and how
// long it was.
func BrokenStreakOf(habit *domain.Habit, today domain.Day) (BrokenStreak, bool) {
	missed := today.AddDays(-1)
	if habit.IsArchived() || habit.IsDayMet(missed, nil) {
		return BrokenStreak{}, false
	}
	last := domain.CurrentStreak(habit, missed.AddDays(-1))
	if last == 0 {
		return BrokenStreak{}, false
	}
	return BrokenStreak{
		HabitID:    habit.ID(),
		UserID:     habit.UserID(),
		LastStreak: last,
		MissedDay:  missed,
	}, true
}

func (w *StreakWatcher) report(ctx context.Context, habit *domain.Habit, streak BrokenStreak) error {
	return sharedApplication.WithUnitOfWork(ctx, w.uow, func(txCtx context.Context) error {
		habit.RecordStreakBroken(streak.LastStreak, streak.MissedDay)

		events := habit.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.EventMetadataFromContext(txCtx, habit.UserID()))
		msgs, err := outbox.NewMessages(events)
		if err != nil {
			return err
		}
		if err := w.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		habit.ClearDomainEvents()
		return nil
	})
}
