package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type txKey struct{}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestWithUnitOfWork(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey{}, "tx")

	t.Run("commits after fn succeeds", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		called := false
		err := WithUnitOfWork(ctx, uow, func(got context.Context) error {
			called = true
			assert.Equal(t, txCtx, got)
			return nil
		})

		require.NoError(t, err)
		assert.True(t, called)
		uow.AssertExpectations(t)
	})

	t.Run("rolls back and keeps fn error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(errors.New("rollback failed"))

		fnErr := errors.New("habit not found")
		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return fnErr })

		assert.ErrorIs(t, err, fnErr)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("begin failure skips fn", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		beginErr := errors.New("database is locked")
		uow.On("Begin", ctx).Return(ctx, beginErr)

		called := false
		err := WithUnitOfWork(ctx, uow, func(context.Context) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, beginErr)
		assert.False(t, called)
	})

	t.Run("returns commit error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		commitErr := errors.New("commit failed")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(commitErr)

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, commitErr)
	})
}

func TestWithUnitOfWorkResult(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey{}, "tx")

	t.Run("returns value on commit", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		streak, err := WithUnitOfWorkResult(ctx, uow, func(context.Context) (int, error) {
			return 7, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 7, streak)
	})

	t.Run("drops value when commit fails", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(errors.New("disk full"))

		streak, err := WithUnitOfWorkResult(ctx, uow, func(context.Context) (int, error) {
			return 7, nil
		})

		assert.Error(t, err)
		assert.Zero(t, streak)
	})
}
