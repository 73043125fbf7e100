package commands

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockHabitRepo is a mock implementation of domain.Repository.
type mockHabitRepo struct {
	mock.Mock
}

func (m *mockHabitRepo) Save(ctx context.Context, habit *domain.Habit) error {
	args := m.Called(ctx, habit)
	return args.Error(0)
}

func (m *mockHabitRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Habit), args.Error(1)
}

func (m *mockHabitRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Habit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *mockHabitRepo) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Habit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *mockHabitRepo) FindAllActive(ctx context.Context) ([]*domain.Habit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *mockHabitRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockHabitOutboxRepo is a mock implementation of outbox.Repository.
type mockHabitOutboxRepo struct {
	mock.Mock
}

func (m *mockHabitOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockHabitOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockHabitOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockHabitOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockHabitOutboxRepo) MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, err, nextRetryAt)
	return args.Error(0)
}

func (m *mockHabitOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockHabitOutboxRepo) GetDead(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockHabitOutboxRepo) Requeue(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockHabitOutboxRepo) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockHabitOutboxRepo) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// mockHabitUnitOfWork is a mock implementation of UnitOfWork.
type mockHabitUnitOfWork struct {
	mock.Mock
}

func (m *mockHabitUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockHabitUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockHabitUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type txKey struct{}

// testNow is the fixed clock every handler test runs on: 2026-03-10 09:30 UTC.
var testNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type handlerDeps struct {
	repo       *mockHabitRepo
	outboxRepo *mockHabitOutboxRepo
	uow        *mockHabitUnitOfWork
	ctx        context.Context
	txCtx      context.Context
}

func newHandlerDeps() *handlerDeps {
	ctx := context.Background()
	return &handlerDeps{
		repo:       new(mockHabitRepo),
		outboxRepo: new(mockHabitOutboxRepo),
		uow:        new(mockHabitUnitOfWork),
		ctx:        ctx,
		txCtx:      context.WithValue(ctx, txKey{}, "transaction"),
	}
}

func (d *handlerDeps) expectCommit() {
	d.uow.On("Begin", d.ctx).Return(d.txCtx, nil)
	d.uow.On("Commit", d.txCtx).Return(nil)
}

func (d *handlerDeps) expectRollback() {
	d.uow.On("Begin", d.ctx).Return(d.txCtx, nil)
	d.uow.On("Rollback", d.txCtx).Return(nil)
}

// captureOutbox expects one SaveBatch call and records its messages.
func (d *handlerDeps) captureOutbox() *[]*outbox.Message {
	var saved []*outbox.Message
	d.outboxRepo.On("SaveBatch", d.txCtx, mock.AnythingOfType("[]*outbox.Message")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).([]*outbox.Message)
		}).
		Return(nil).
		Once()
	return &saved
}

func (d *handlerDeps) assertExpectations(t *testing.T) {
	t.Helper()
	d.repo.AssertExpectations(t)
	d.outboxRepo.AssertExpectations(t)
	d.uow.AssertExpectations(t)
}

func routingKeys(msgs []*outbox.Message) []string {
	keys := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		keys = append(keys, msg.RoutingKey)
	}
	return keys
}

// createTestHabit builds a daily running habit created five days before testNow
// with a summed distance metric and no pending events.
func createTestHabit(t *testing.T, userID uuid.UUID) *domain.Habit {
	t.Helper()
	habit, err := domain.NewHabit(userID, "Running", domain.Daily(), testNow.AddDate(0, 0, -5))
	require.NoError(t, err)
	distance, err := domain.NewMetricDefinition("distance", "km", domain.AggregationSum)
	require.NoError(t, err)
	require.NoError(t, habit.DefineMetric(distance))
	habit.ClearDomainEvents()
	return habit
}

func logDistance(t *testing.T, habit *domain.Habit, day domain.Day, km float64) *domain.ActivityLog {
	t.Helper()
	log, err := habit.LogActivity(day, day.Time().Add(7*time.Hour), "", []domain.LogPoint{{Metric: "distance", Value: km}})
	require.NoError(t, err)
	habit.ClearDomainEvents()
	return log
}
