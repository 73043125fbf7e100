package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	habitCommands "github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorker_InvalidSchedule(t *testing.T) {
	container, _, _ := setupLocalModeContainer(t)

	container.Config.RolloverSchedule = "every day"
	_, err := NewWorker(container)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rollover schedule")

	container.Config.RolloverSchedule = "5 0 * * *"
	container.Config.CleanupSchedule = "* *"
	_, err = NewWorker(container)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cleanup schedule")
}

func TestWorker_RolloverAndCleanup(t *testing.T) {
	container, ctx, userID := setupLocalModeContainer(t)

	worker, err := NewWorker(container)
	require.NoError(t, err)

	created, err := container.CreateHabitHandler.Handle(ctx, habitCommands.CreateHabitCommand{
		UserID: userID,
		Name:   "Read",
	})
	require.NoError(t, err)
	_, err = container.LogActivityHandler.Handle(ctx, habitCommands.LogActivityCommand{
		HabitID: created.HabitID,
		UserID:  userID,
	})
	require.NoError(t, err)

	now := time.Now()
	worker.now = func() time.Time { return now.AddDate(0, 0, 1) }
	broken, err := worker.Rollover(ctx)
	require.NoError(t, err)
	assert.Zero(t, broken)

	worker.now = func() time.Time { return now.AddDate(0, 0, 2) }
	broken, err = worker.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, broken)

	// Rollover delivers what it queued
	pending, err := container.OutboxRepo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	deleted, err := worker.CleanupOutbox(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	worker.now = func() time.Time { return now.Add(container.Config.OutboxRetention() + time.Hour) }
	deleted, err = worker.CleanupOutbox(ctx)
	require.NoError(t, err)
	assert.Positive(t, deleted)
}

func TestWorker_Handler(t *testing.T) {
	container, ctx, userID := setupLocalModeContainer(t)

	worker, err := NewWorker(container)
	require.NoError(t, err)
	handler := worker.Handler()

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, false, body["running"])
	})

	t.Run("readyz degrades while the relay is stopped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var health observability.OverallHealth
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, observability.HealthStatusDegraded, health.Status)
		assert.Equal(t, observability.HealthStatusHealthy, health.Checks["database"].Status)
		assert.Equal(t, observability.HealthStatusDegraded, health.Checks["outbox"].Status)
	})

	t.Run("feed", func(t *testing.T) {
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
		require.NoError(t, container.DeliverPending(ctx))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed?n=5", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var feed []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
		require.Len(t, feed, 1)
		assert.Equal(t, goal.GoalID.String(), feed[0]["goal_id"])
	})

	t.Run("metrics count delivered events", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var snap observability.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, int64(1), snap.Counters[observability.MetricHabitsCreated])
		assert.Equal(t, int64(1), snap.Counters[observability.MetricProgressShared])
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestWorker_StartStop(t *testing.T) {
	container, _, _ := setupLocalModeContainer(t)

	worker, err := NewWorker(container)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, worker.Start(ctx))
	assert.True(t, container.OutboxProcessor.IsRunning())

	worker.Stop()
	assert.False(t, container.OutboxProcessor.IsRunning())
}
