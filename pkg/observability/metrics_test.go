package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics_Counter(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricEventsConsumed, 1, T("routing_key", "habits.activity.logged"))
	m.Counter(MetricEventsConsumed, 2, T("routing_key", "habits.activity.logged"))
	m.Counter(MetricEventsConsumed, 1, T("routing_key", "habits.goal.completed"))

	assert.Equal(t, int64(3), m.GetCounter(MetricEventsConsumed, T("routing_key", "habits.activity.logged")))
	assert.Equal(t, int64(1), m.GetCounter(MetricEventsConsumed, T("routing_key", "habits.goal.completed")))
	assert.Zero(t, m.GetCounter(MetricEventsConsumed))
}

func TestInMemoryMetrics_Gauge(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Gauge(MetricOutboxLagSeconds, 12)
	m.Gauge(MetricOutboxLagSeconds, 3.5)

	assert.Equal(t, 3.5, m.GetGauge(MetricOutboxLagSeconds))
}

func TestInMemoryMetrics_Timing(t *testing.T) {
	m := NewInMemoryMetrics()

	for _, d := range []time.Duration{10 * time.Millisecond, 30 * time.Millisecond, 20 * time.Millisecond} {
		m.Timing(MetricOperationDuration, d)
	}

	summary := m.GetTiming(MetricOperationDuration)
	assert.Equal(t, int64(3), summary.Count)
	assert.Equal(t, 60*time.Millisecond, summary.Total)
	assert.Equal(t, 30*time.Millisecond, summary.Max)
	assert.Equal(t, 20*time.Millisecond, summary.Mean())
	assert.Zero(t, TimingSummary{}.Mean())
}

func TestInMemoryMetrics_Snapshot(t *testing.T) {
	m := NewInMemoryMetrics()
	m.Counter(MetricHabitsCreated, 1)

	snap := m.Snapshot()
	m.Counter(MetricHabitsCreated, 1)

	assert.Equal(t, int64(1), snap.Counters[MetricHabitsCreated])
	assert.Equal(t, int64(2), m.GetCounter(MetricHabitsCreated))
}

func TestInMemoryMetrics_Concurrent(t *testing.T) {
	m := NewInMemoryMetrics()
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			m.Counter(MetricActivitiesLogged, 1)
			m.Timing(MetricOperationDuration, time.Millisecond)
		})
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.GetCounter(MetricActivitiesLogged))
	assert.Equal(t, int64(50), m.GetTiming(MetricOperationDuration).Count)
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		name string
		tags []Tag
		want string
	}{
		{"no tags", nil, "cadence.operation.total"},
		{"one tag", []Tag{T("operation", "habits.get_goal_progress")}, "cadence.operation.total:operation=habits.get_goal_progress"},
		{"tag order kept", []Tag{T("operation", "x"), T("outcome", "ok")}, "cadence.operation.total:operation=x:outcome=ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatKey(MetricOperationTotal, tt.tags))
		})
	}
}
