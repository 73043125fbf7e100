package subscribers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/habits/infrastructure/cache"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

// consumed runs every pending event of habit through the outbox envelope,
// the way the relay delivers them.
func consumed(t *testing.T, habit *domain.Habit) []*eventbus.ConsumedEvent {
	t.Helper()
	msgs, err := outbox.NewMessages(habit.DomainEvents())
	require.NoError(t, err)
	habit.ClearDomainEvents()

	events := make([]*eventbus.ConsumedEvent, 0, len(msgs))
	for _, msg := range msgs {
		envelope, err := msg.Envelope()
		require.NoError(t, err)
		var event eventbus.ConsumedEvent
		require.NoError(t, json.Unmarshal(envelope, &event))
		events = append(events, &event)
	}
	return events
}

func sharedHabit(t *testing.T, name string) (*domain.Habit, *domain.Goal) {
	t.Helper()
	habit, err := domain.NewHabit(uuid.New(), name, domain.Daily(), now.AddDate(0, 0, -3))
	require.NoError(t, err)
	goal, err := domain.NewDeadlineGoal("Race day", domain.DayOf(now).AddDays(12), now)
	require.NoError(t, err)
	require.NoError(t, habit.AddGoal(goal, domain.DayOf(now), now))
	habit.ClearDomainEvents()
	return habit, goal
}

func TestShareFeed_Handle(t *testing.T) {
	t.Run("stores decoded records newest first", func(t *testing.T) {
		feed := NewShareFeed(0, nil)
		for _, name := range []string{"Running", "Reading"} {
			habit, goal := sharedHabit(t, name)
			_, err := habit.Share(goal.ID(), domain.DayOf(now), now)
			require.NoError(t, err)
			for _, event := range consumed(t, habit) {
				require.NoError(t, feed.Handle(context.Background(), event))
			}
		}

		latest := feed.Latest(0)
		require.Len(t, latest, 2)
		assert.Equal(t, "Reading", latest[0].Record.HabitName)
		assert.Equal(t, domain.GoalDeadline, latest[1].Record.GoalKind)
		require.NotNil(t, latest[1].Record.TargetDate)
		assert.Equal(t, domain.DayOf(now).AddDays(12), *latest[1].Record.TargetDate)
		assert.Len(t, feed.Latest(1), 1)
	})

	t.Run("ignores redeliveries and evicts the oldest", func(t *testing.T) {
		feed := NewShareFeed(2, nil)
		var events []*eventbus.ConsumedEvent
		for range 3 {
			habit, goal := sharedHabit(t, "Swim")
			_, err := habit.Share(goal.ID(), domain.DayOf(now), now)
			require.NoError(t, err)
			events = append(events, consumed(t, habit)...)
		}

		for _, event := range events {
			require.NoError(t, feed.Handle(context.Background(), event))
		}
		require.NoError(t, feed.Handle(context.Background(), events[2]))

		latest := feed.Latest(0)
		require.Len(t, latest, 2)
		assert.Equal(t, events[2].EventID, latest[0].EventID)
		assert.Equal(t, events[1].EventID, latest[1].EventID)
	})

	t.Run("rejects malformed records", func(t *testing.T) {
		feed := NewShareFeed(0, nil)
		event := &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: domain.RoutingProgressShared,
			Payload:    json.RawMessage(`{"record":{"habit_name":"","goal_kind":"deadline"}}`),
		}

		err := feed.Handle(context.Background(), event)

		assert.ErrorIs(t, err, domain.ErrInvalidShareRecord)
		assert.Empty(t, feed.Latest(0))
	})
}

func TestCacheInvalidator_Handle(t *testing.T) {
	progressCache := cache.NewMemoryProgressCache(0)
	invalidator := NewCacheInvalidator(progressCache, nil)

	habit, goal := sharedHabit(t, "Running")
	key := cache.ProgressKey{HabitID: habit.ID(), Version: habit.Version(), GoalID: goal.ID(), Day: domain.DayOf(now)}
	require.NoError(t, progressCache.Set(context.Background(), key, domain.ProjectProgress(habit, goal, domain.DayOf(now))))

	_, err := habit.LogActivity(domain.DayOf(now), now, "", nil)
	require.NoError(t, err)
	events := consumed(t, habit)
	require.Len(t, events, 1)
	assert.Contains(t, invalidator.EventTypes(), events[0].RoutingKey)

	require.NoError(t, invalidator.Handle(context.Background(), events[0]))

	assert.Equal(t, 0, progressCache.Len())
}

func TestSubscribers_RegisterOnBus(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	feed := NewShareFeed(0, nil)
	bus.RegisterConsumer(feed)
	bus.RegisterConsumer(NewCacheInvalidator(cache.NewMemoryProgressCache(0), nil))

	habit, goal := sharedHabit(t, "Running")
	_, err := habit.Share(goal.ID(), domain.DayOf(now), now)
	require.NoError(t, err)
	msgs, err := outbox.NewMessages(habit.DomainEvents())
	require.NoError(t, err)
	envelope, err := msgs[0].Envelope()
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), msgs[0].RoutingKey, envelope))

	assert.Len(t, feed.Latest(0), 1)
}

func TestEventMetrics_Handle(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	recorder := NewEventMetrics(metrics)

	habit, goal := sharedHabit(t, "Running")
	_, err := habit.LogActivity(domain.DayOf(now), now, "", nil)
	require.NoError(t, err)
	_, err = habit.Share(goal.ID(), domain.DayOf(now), now)
	require.NoError(t, err)

	for _, event := range consumed(t, habit) {
		require.NoError(t, recorder.Handle(context.Background(), event))
	}
	require.NoError(t, recorder.Handle(context.Background(), &eventbus.ConsumedEvent{RoutingKey: domain.RoutingStreakBroken}))

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricActivitiesLogged))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricProgressShared))
	assert.Zero(t, metrics.GetCounter(observability.MetricStreaksBroken))
	assert.ElementsMatch(t, []string{
		domain.RoutingHabitCreated,
		domain.RoutingActivityLogged,
		domain.RoutingMilestoneReached,
		domain.RoutingGoalCompleted,
		domain.RoutingProgressShared,
	}, recorder.EventTypes())
}
