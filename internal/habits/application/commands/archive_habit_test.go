package commands

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestArchiveHabitHandler_Handle(t *testing.T) {
	userID := uuid.New()

	t.Run("successfully archives a habit", func(t *testing.T) {
		d := newHandlerDeps()
		handler := NewArchiveHabitHandler(d.repo, d.outboxRepo, d.uow)
		habit := createTestHabit(t, userID)

		d.expectCommit()
		d.repo.On("FindByID", d.txCtx, habit.ID()).Return(habit, nil)
		d.repo.On("Save", d.txCtx, habit).Return(nil)
		msgs := d.captureOutbox()

		err := handler.Handle(d.ctx, ArchiveHabitCommand{HabitID: habit.ID(), UserID: userID})

		require.NoError(t, err)
		assert.True(t, habit.IsArchived())
		assert.Equal(t, []string{domain.RoutingHabitArchived}, routingKeys(*msgs))
		d.assertExpectations(t)
	})

	t.Run("archiving already archived habit is idempotent", func(t *testing.T) {
		d := newHandlerDeps()
		handler := NewArchiveHabitHandler(d.repo, d.outboxRepo, d.uow)
		habit := createTestHabit(t, userID)
		habit.Archive()
		habit.ClearDomainEvents()

		d.expectCommit()
		d.repo.On("FindByID", d.txCtx, habit.ID()).Return(habit, nil)
		d.repo.On("Save", d.txCtx, habit).Return(nil)

		err := handler.Handle(d.ctx, ArchiveHabitCommand{HabitID: habit.ID(), UserID: userID})

		require.NoError(t, err)
		d.outboxRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("returns ErrHabitNotFound when habit does not exist", func(t *testing.T) {
		d := newHandlerDeps()
		handler := NewArchiveHabitHandler(d.repo, d.outboxRepo, d.uow)
		habitID := uuid.New()

		d.expectRollback()
		d.repo.On("FindByID", d.txCtx, habitID).Return(nil, nil)

		err := handler.Handle(d.ctx, ArchiveHabitCommand{HabitID: habitID, UserID: userID})

		assert.ErrorIs(t, err, ErrHabitNotFound)
		d.uow.AssertExpectations(t)
	})

	t.Run("returns ErrNotOwner when user does not own habit", func(t *testing.T) {
		d := newHandlerDeps()
		handler := NewArchiveHabitHandler(d.repo, d.outboxRepo, d.uow)
		habit := createTestHabit(t, uuid.New())

		d.expectRollback()
		d.repo.On("FindByID", d.txCtx, habit.ID()).Return(habit, nil)

		err := handler.Handle(d.ctx, ArchiveHabitCommand{HabitID: habit.ID(), UserID: userID})

		assert.ErrorIs(t, err, ErrNotOwner)
		assert.False(t, habit.IsArchived())
	})

	t.Run("fails when repository save fails", func(t *testing.T) {
		d := newHandlerDeps()
		handler := NewArchiveHabitHandler(d.repo, d.outboxRepo, d.uow)
		habit := createTestHabit(t, userID)
		saveErr := errors.New("database error")

		d.expectRollback()
		d.repo.On("FindByID", d.txCtx, habit.ID()).Return(habit, nil)
		d.repo.On("Save", d.txCtx, habit).Return(saveErr)

		err := handler.Handle(d.ctx, ArchiveHabitCommand{HabitID: habit.ID(), UserID: userID})

		assert.ErrorIs(t, err, saveErr)
		d.outboxRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})
}

func TestUnarchiveHabitHandler_Handle(t *testing.T) {
	userID := uuid.New()
	d := newHandlerDeps()
	handler := NewUnarchiveHabitHandler(d.repo, d.outboxRepo, d.uow)
	habit := createTestHabit(t, userID)
	habit.Archive()
	habit.ClearDomainEvents()

	d.expectCommit()
	d.repo.On("FindByID", d.txCtx, habit.ID()).Return(habit, nil)
	d.repo.On("Save", d.txCtx, habit).Return(nil)
	msgs := d.captureOutbox()

	err := handler.Handle(d.ctx, ArchiveHabitCommand{HabitID: habit.ID(), UserID: userID})

	require.NoError(t, err)
	assert.False(t, habit.IsArchived())
	assert.Equal(t, []string{domain.RoutingHabitUnarchived}, routingKeys(*msgs))
}

func TestDeleteHabitHandler_Handle(t *testing.T) {
	userID := uuid.New()

	t.Run("deletes the habit and queues the event", func(t *testing.T) {
		d := newHandlerDeps()
		handler := NewDeleteHabitHandler(d.repo, d.outboxRepo, d.uow)
		habit := createTestHabit(t, userID)

		d.expectCommit()
		d.repo.On("FindByID", d.txCtx, habit.ID()).Return(habit, nil)
		d.repo.On("Delete", d.txCtx, habit.ID()).Return(nil)
		msgs := d.captureOutbox()

		err := handler.Handle(d.ctx, DeleteHabitCommand{HabitID: habit.ID(), UserID: userID})

		require.NoError(t, err)
		assert.Equal(t, []string{domain.RoutingHabitDeleted}, routingKeys(*msgs))
		d.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("keeps the habit when the delete fails", func(t *testing.T) {
		d := newHandlerDeps()
		handler := NewDeleteHabitHandler(d.repo, d.outboxRepo, d.uow)
		habit := createTestHabit(t, userID)

		d.expectRollback()
		d.repo.On("FindByID", d.txCtx, habit.ID()).Return(habit, nil)
		d.repo.On("Delete", d.txCtx, habit.ID()).Return(errors.New("locked"))

		err := handler.Handle(d.ctx, DeleteHabitCommand{HabitID: habit.ID(), UserID: userID})

		require.Error(t, err)
		d.outboxRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})
}
