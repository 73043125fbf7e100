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

// AddGoalCommand attaches a goal to a habit. Which fields apply depends on Kind:
// target_value uses Metric and Target, deadline uses TargetDay, consistency
// uses Difficulty and optionally Metric with Target as a per-day threshold.
type AddGoalCommand struct {
	HabitID    uuid.UUID
	UserID     uuid.UUID
	Kind       string
	Name       string
	Metric     string
	Target     float64
	TargetDay  domain.Day
	Difficulty string
}

func (cmd AddGoalCommand) goal(now time.Time) (*domain.Goal, error) {
	switch domain.GoalKind(cmd.Kind) {
	case domain.GoalTargetValue:
		return domain.NewTargetValueGoal(cmd.Name, cmd.Metric, cmd.Target, now)
	case domain.GoalDeadline:
		return domain.NewDeadlineGoal(cmd.Name, cmd.TargetDay, now)
	case domain.GoalConsistency:
		return domain.NewConsistencyGoal(cmd.Name, domain.Difficulty(cmd.Difficulty), cmd.Metric, cmd.Target, now)
	default:
		return nil, fmt.Errorf("%w: unknown goal kind %q", domain.ErrInvalidGoal, cmd.Kind)
	}
}

// AddGoalResult contains the result of adding a goal.
type AddGoalResult struct {
	GoalID uuid.UUID
	// Completed is set when the goal was already satisfied on the day it was added.
	Completed bool
}

// AddGoalHandler handles the AddGoalCommand.
type AddGoalHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewAddGoalHandler creates a new AddGoalHandler.
func NewAddGoalHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *AddGoalHandler {
	return &AddGoalHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the AddGoalCommand.
func (h *AddGoalHandler) Handle(ctx context.Context, cmd AddGoalCommand) (*AddGoalResult, error) {
	now := h.store.now()
	goal, err := cmd.goal(now)
	if err != nil {
		return nil, err
	}

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*AddGoalResult, error) {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return nil, err
		}
		if err := habit.AddGoal(goal, domain.DayOf(now), now); err != nil {
			return nil, err
		}
		if err := h.store.save(txCtx, habit, cmd.UserID); err != nil {
			return nil, err
		}
		return &AddGoalResult{GoalID: goal.ID(), Completed: goal.IsCompleted()}, nil
	})
}

// ArchiveGoalCommand hides a goal from projections.
type ArchiveGoalCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	GoalID  uuid.UUID
}

// ArchiveGoalHandler handles the ArchiveGoalCommand.
type ArchiveGoalHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewArchiveGoalHandler creates a new ArchiveGoalHandler.
func NewArchiveGoalHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ArchiveGoalHandler {
	return &ArchiveGoalHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the ArchiveGoalCommand.
func (h *ArchiveGoalHandler) Handle(ctx context.Context, cmd ArchiveGoalCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return err
		}
		if err := habit.ArchiveGoal(cmd.GoalID); err != nil {
			return err
		}
		return h.store.save(txCtx, habit, cmd.UserID)
	})
}
