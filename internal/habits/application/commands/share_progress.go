package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ShareProgressCommand exports one goal's progress for peers.
type ShareProgressCommand struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	GoalID  uuid.UUID
}

// ShareProgressResult carries the record and its JSON encoding.
type ShareProgressResult struct {
	Record domain.ShareRecord
	JSON   []byte
}

// ShareProgressHandler builds a share record and queues it on the outbox.
// The habit rows are not written.
type ShareProgressHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewShareProgressHandler creates a new ShareProgressHandler.
func NewShareProgressHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *ShareProgressHandler {
	return &ShareProgressHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the ShareProgressCommand.
func (h *ShareProgressHandler) Handle(ctx context.Context, cmd ShareProgressCommand) (*ShareProgressResult, error) {
	now := h.store.now()

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*ShareProgressResult, error) {
		habit, err := h.store.loadOwned(txCtx, cmd.HabitID, cmd.UserID)
		if err != nil {
			return nil, err
		}
		record, err := habit.Share(cmd.GoalID, domain.DayOf(now), now)
		if err != nil {
			return nil, err
		}
		data, err := domain.EncodeShareRecord(record)
		if err != nil {
			return nil, err
		}
		if err := h.store.publish(txCtx, habit, cmd.UserID); err != nil {
			return nil, err
		}
		return &ShareProgressResult{Record: record, JSON: data}, nil
	})
}
