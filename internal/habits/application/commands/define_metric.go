package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// DefineMetricCommand adds a metric definition to a habit.
type DefineMetricCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	Metric  MetricInput
}

// DefineMetricHandler handles the DefineMetricCommand.
type DefineMetricHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewDefineMetricHandler creates a new DefineMetricHandler.
func NewDefineMetricHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DefineMetricHandler {
	return &DefineMetricHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the DefineMetricCommand.
func (h *DefineMetricHandler) Handle(ctx context.Context, cmd DefineMetricCommand) error {
	def, err := cmd.Metric.toDomain()
	if err != nil {
		return err
	}

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return err
		}
		if err := habit.DefineMetric(def); err != nil {
			return err
		}
		return h.store.save(txCtx, habit, cmd.UserID)
	})
}

// RemoveMetricCommand drops a metric definition. Logged values are kept.
type RemoveMetricCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	Name    string
}

// RemoveMetricHandler handles the RemoveMetricCommand.
type RemoveMetricHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewRemoveMetricHandler creates a new RemoveMetricHandler.
func NewRemoveMetricHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *RemoveMetricHandler {
	return &RemoveMetricHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the RemoveMetricCommand.
func (h *RemoveMetricHandler) Handle(ctx context.Context, cmd RemoveMetricCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return err
		}
		if err := habit.RemoveMetric(cmd.Name); err != nil {
			return err
		}
		return h.store.save(txCtx, habit, cmd.UserID)
	})
}
