package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	habitCommands "github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	habitQueries "github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLocalModeContainer creates a test local mode container.
func setupLocalModeContainer(t *testing.T) (*Container, context.Context, uuid.UUID) {
	t.Helper()

	userID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	cfg := config.Default()
	cfg.AppEnv = "test"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	cfg.UserID = userID.String()

	// Silent in tests
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	ctx := context.Background()
	container, err := NewLocalContainer(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(container.Close)

	return container, ctx, userID
}

func TestLocalModeContainer(t *testing.T) {
	container, _, _ := setupLocalModeContainer(t)

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.NotNil(t, container.DBConn)
	assert.Nil(t, container.RedisClient)

	assert.NotNil(t, container.HabitRepo)
	assert.NotNil(t, container.OutboxRepo)
	assert.NotNil(t, container.UnitOfWork)
	assert.NotNil(t, container.ProgressCache)

	// Without a broker events are delivered in process
	require.NotNil(t, container.EventBus)
	assert.Equal(t, container.EventBus, container.EventPublisher)
	assert.Equal(t, 2, container.EventBus.Registry().ConsumerCount())

	assert.NotNil(t, container.CreateHabitHandler)
	assert.NotNil(t, container.LogActivityHandler)
	assert.NotNil(t, container.ShareProgressHandler)
	assert.NotNil(t, container.ListHabitsHandler)
	assert.NotNil(t, container.GetGoalProgressHandler)
	assert.NotNil(t, container.GetPeriodReviewHandler)
	assert.NotNil(t, container.StreakWatcher)
}

func TestNewLocalContainer_IgnoresRemoteServices(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	cfg.DatabaseDriver = config.DriverPostgres
	cfg.DatabaseURL = "postgres://nobody@localhost:1/none"
	cfg.RedisURL = "redis://localhost:1"
	cfg.RabbitMQURL = "amqp://localhost:1"

	container, err := NewLocalContainer(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.NotNil(t, container.EventBus)
	// The caller's config is left untouched.
	assert.Equal(t, config.DriverPostgres, cfg.DatabaseDriver)
}

func TestLocalModeHabitWorkflow(t *testing.T) {
	container, ctx, userID := setupLocalModeContainer(t)

	created, err := container.CreateHabitHandler.Handle(ctx, habitCommands.CreateHabitCommand{
		UserID: userID,
		Name:   "Running",
		Metrics: []habitCommands.MetricInput{
			{Name: "distance", Unit: "km"},
		},
	})
	require.NoError(t, err)

	goal, err := container.AddGoalHandler.Handle(ctx, habitCommands.AddGoalCommand{
		HabitID: created.HabitID,
		UserID:  userID,
		Kind:    string(domain.GoalTargetValue),
		Metric:  "distance",
		Target:  10,
	})
	require.NoError(t, err)

	logged, err := container.LogActivityHandler.Handle(ctx, habitCommands.LogActivityCommand{
		HabitID: created.HabitID,
		UserID:  userID,
		Points:  []domain.LogPoint{{Metric: "distance", Value: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, logged.CurrentStreak)
	require.Len(t, logged.GoalUpdates, 1)
	assert.InDelta(t, 0.5, logged.GoalUpdates[0].After, 1e-9)

	habits, err := container.ListHabitsHandler.Handle(ctx, habitQueries.ListHabitsQuery{UserID: userID})
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "Running", habits[0].Name)
	assert.True(t, habits[0].LoggedToday)

	progress, err := container.GetGoalProgressHandler.Handle(ctx, habitQueries.GetGoalProgressQuery{
		HabitID: created.HabitID,
		UserID:  userID,
		GoalID:  goal.GoalID,
	})
	require.NoError(t, err)
	assert.False(t, progress.Cached)
	assert.InDelta(t, 0.5, progress.Goal.Progress.Value, 1e-9)

	again, err := container.GetGoalProgressHandler.Handle(ctx, habitQueries.GetGoalProgressQuery{
		HabitID: created.HabitID,
		UserID:  userID,
		GoalID:  goal.GoalID,
	})
	require.NoError(t, err)
	assert.True(t, again.Cached)
}

func TestLocalModeOutboxWorkflow(t *testing.T) {
	container, ctx, userID := setupLocalModeContainer(t)

	created, err := container.CreateHabitHandler.Handle(ctx, habitCommands.CreateHabitCommand{
		UserID: userID,
		Name:   "Meditate",
	})
	require.NoError(t, err)

	goal, err := container.AddGoalHandler.Handle(ctx, habitCommands.AddGoalCommand{
		HabitID:    created.HabitID,
		UserID:     userID,
		Kind:       string(domain.GoalConsistency),
		Difficulty: "easy",
	})
	require.NoError(t, err)

	_, err = container.ShareProgressHandler.Handle(ctx, habitCommands.ShareProgressCommand{
		HabitID: created.HabitID,
		UserID:  userID,
		GoalID:  goal.GoalID,
	})
	require.NoError(t, err)

	pending, err := container.OutboxRepo.CountPending(ctx)
	require.NoError(t, err)
	assert.Positive(t, pending)

	require.NoError(t, container.DeliverPending(ctx))

	pending, err = container.OutboxRepo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	feed := container.ShareFeed.Latest(0)
	require.Len(t, feed, 1)
	assert.Equal(t, goal.GoalID, feed[0].GoalID)
	assert.Equal(t, "Meditate", feed[0].Record.HabitName)
	assert.Equal(t, domain.GoalConsistency, feed[0].Record.GoalKind)
}

func TestLocalModeStreakWatcher(t *testing.T) {
	container, ctx, userID := setupLocalModeContainer(t)

	created, err := container.CreateHabitHandler.Handle(ctx, habitCommands.CreateHabitCommand{
		UserID: userID,
		Name:   "Read",
	})
	require.NoError(t, err)

	// Logged today only, so tomorrow's rollover has nothing broken yet.
	_, err = container.LogActivityHandler.Handle(ctx, habitCommands.LogActivityCommand{
		HabitID: created.HabitID,
		UserID:  userID,
	})
	require.NoError(t, err)

	today := domain.DayOf(time.Now())
	broken, err := container.StreakWatcher.Check(ctx, today.AddDays(1))
	require.NoError(t, err)
	assert.Empty(t, broken)

	// Two days later yesterday is empty and the streak ended the day before.
	broken, err = container.StreakWatcher.Check(ctx, today.AddDays(2))
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, created.HabitID, broken[0].HabitID)
	assert.Equal(t, 1, broken[0].LastStreak)
}
