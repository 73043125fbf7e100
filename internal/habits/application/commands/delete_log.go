package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// DeleteLogCommand removes one activity log.
type DeleteLogCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	LogID   uuid.UUID
}

// DeleteLogHandler handles the DeleteLogCommand. Completed goals stay completed.
type DeleteLogHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewDeleteLogHandler creates a new DeleteLogHandler.
func NewDeleteLogHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DeleteLogHandler {
	return &DeleteLogHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the DeleteLogCommand.
func (h *DeleteLogHandler) Handle(ctx context.Context, cmd DeleteLogCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return err
		}
		if err := habit.DeleteLog(cmd.LogID); err != nil {
			return err
		}
		return h.store.save(txCtx, habit, cmd.UserID)
	})
}
