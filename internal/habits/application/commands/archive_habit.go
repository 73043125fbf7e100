package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ArchiveHabitCommand contains the data needed to archive or restore a habit.
type ArchiveHabitCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
}

// ArchiveHabitHandler archives habits. Archiving an archived habit is a no-op.
type ArchiveHabitHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewArchiveHabitHandler creates a new ArchiveHabitHandler.
func NewArchiveHabitHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ArchiveHabitHandler {
	return &ArchiveHabitHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the ArchiveHabitCommand.
func (h *ArchiveHabitHandler) Handle(ctx context.Context, cmd ArchiveHabitCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return err
		}
		habit.Archive()
		return h.store.save(txCtx, habit, cmd.UserID)
	})
}

// UnarchiveHabitHandler restores archived habits.
type UnarchiveHabitHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewUnarchiveHabitHandler creates a new UnarchiveHabitHandler.
func NewUnarchiveHabitHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *UnarchiveHabitHandler {
	return &UnarchiveHabitHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle restores the habit named by cmd.
func (h *UnarchiveHabitHandler) Handle(ctx context.Context, cmd ArchiveHabitCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return err
		}
		habit.Unarchive()
		return h.store.save(txCtx, habit, cmd.UserID)
	})
}

// DeleteHabitCommand permanently removes a habit and its history.
type DeleteHabitCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
}

// DeleteHabitHandler handles the DeleteHabitCommand.
type DeleteHabitHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewDeleteHabitHandler creates a new DeleteHabitHandler.
func NewDeleteHabitHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DeleteHabitHandler {
	return &DeleteHabitHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the DeleteHabitCommand.
func (h *DeleteHabitHandler) Handle(ctx context.Context, cmd DeleteHabitCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return err
		}
		habit.MarkDeleted()
		if err := h.store.habitRepo.Delete(txCtx, habit.ID()); err != nil {
			return err
		}
		return h.store.publish(txCtx, habit, cmd.UserID)
	})
}
