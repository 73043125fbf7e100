package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// LogActivityCommand contains the data needed to log a habit activity.
type LogActivityCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	// Day defaults to today. Backfilling past days is allowed, future days are not.
	Day domain.Day
	// LoggedAt defaults to now.
	LoggedAt time.Time
	Notes    string
	Points   []domain.LogPoint
}

// LogActivityResult contains the result of logging an activity.
type LogActivityResult struct {
	LogID         uuid.UUID
	Day           domain.Day
	LogsOnDay     int
	CurrentStreak int
	GoalUpdates   []domain.GoalUpdate
}

// Celebrations returns the updates that crossed a milestone or completed a goal.
func (r *LogActivityResult) Celebrations() []domain.GoalUpdate {
	out := make([]domain.GoalUpdate, 0)
	for _, u := range r.GoalUpdates {
		if len(u.Milestones) > 0 || u.Completed {
			out = append(out, u)
		}
	}
	return out
}

// LogActivityHandler handles the LogActivityCommand.
type LogActivityHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewLogActivityHandler creates a new LogActivityHandler.
func NewLogActivityHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *LogActivityHandler {
	return &LogActivityHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the LogActivityCommand.
//
// Every active goal is projected before and after the log is appended; the
// difference yields the crossed milestones and latches completed goals.
func (h *LogActivityHandler) Handle(ctx context.Context, cmd LogActivityCommand) (*LogActivityResult, error) {
	now := h.store.now()
	today := domain.DayOf(now)

	day := cmd.Day
	if day.IsZero() {
		day = today
	}
	if day.After(today) {
		return nil, fmt.Errorf("%w: cannot log %s, it is after today", ErrInvalidInput, day)
	}
	loggedAt := cmd.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = now
	}

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*LogActivityResult, error) {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return nil, err
		}

		before := habit.ProgressSnapshot(today)
		log, err := habit.LogActivity(day, loggedAt, cmd.Notes, cmd.Points)
		if err != nil {
			return nil, err
		}
		updates := habit.SettleProgress(before, today, now)

		if err := h.store.save(txCtx, habit, cmd.UserID); err != nil {
			return nil, err
		}

		return &LogActivityResult{
			LogID:         log.ID(),
			Day:           day,
			LogsOnDay:     habit.LogCount(day),
			CurrentStreak: domain.CurrentStreak(habit, today),
			GoalUpdates:   updates,
		}, nil
	})
}
