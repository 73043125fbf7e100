package subscribers

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

// counted maps habit routing keys to the counter they bump.
// Broken streaks are counted by the watcher that detects them.
var counted = map[string]string{
	domain.RoutingHabitCreated:     observability.MetricHabitsCreated,
	domain.RoutingActivityLogged:   observability.MetricActivitiesLogged,
	domain.RoutingMilestoneReached: observability.MetricMilestonesReached,
	domain.RoutingGoalCompleted:    observability.MetricGoalsCompleted,
	domain.RoutingProgressShared:   observability.MetricProgressShared,
}

// EventMetrics turns delivered habit events into business counters.
type EventMetrics struct {
	metrics observability.Metrics
}

// NewEventMetrics creates an EventMetrics recorder.
func NewEventMetrics(metrics observability.Metrics) *EventMetrics {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &EventMetrics{metrics: metrics}
}

// EventTypes returns the event types this subscriber handles.
func (m *EventMetrics) EventTypes() []string {
	types := make([]string, 0, len(counted))
	for key := range counted {
		types = append(types, key)
	}
	return types
}

// Handle processes an event.
func (m *EventMetrics) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	if name, ok := counted[event.RoutingKey]; ok {
		m.metrics.Counter(name, 1)
	}
	return nil
}
