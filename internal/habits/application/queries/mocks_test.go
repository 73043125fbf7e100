package queries

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
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

// today is the fixed query day: Tuesday 2026-03-10.
var today = domain.NewDay(2026, time.March, 10)

// createTestHabit builds a habit created days before today with summed
// distance and high-water weight metrics.
func createTestHabit(t *testing.T, userID uuid.UUID, name string, age int) *domain.Habit {
	t.Helper()
	created := today.AddDays(-age).Time().Add(8 * time.Hour)
	habit, err := domain.NewHabit(userID, name, domain.Daily(), created)
	require.NoError(t, err)
	for _, m := range []struct{ name, unit string }{{"distance", "km"}, {"weight", "kg"}} {
		def, err := domain.NewMetricDefinition(m.name, m.unit, "")
		require.NoError(t, err)
		require.NoError(t, habit.DefineMetric(def))
	}
	habit.ClearDomainEvents()
	return habit
}

// logOn appends a log with the given metric points on each day offset from today.
func logOn(t *testing.T, habit *domain.Habit, offset int, points ...domain.LogPoint) *domain.ActivityLog {
	t.Helper()
	day := today.AddDays(offset)
	log, err := habit.LogActivity(day, day.Time().Add(18*time.Hour+time.Duration(len(habit.LogsOn(day)))*time.Minute), "", points)
	require.NoError(t, err)
	habit.ClearDomainEvents()
	return log
}

func km(v float64) domain.LogPoint { return domain.LogPoint{Metric: "distance", Value: v} }

func kg(v float64) domain.LogPoint { return domain.LogPoint{Metric: "weight", Value: v} }
