package observability

import (
	"maps"
	"strings"
	"sync"
	"time"
)

// Metrics records application metrics.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is a metric label.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// TimingSummary aggregates the durations recorded under one key.
type TimingSummary struct {
	Count int64         `json:"count"`
	Total time.Duration `json:"total_ns"`
	Max   time.Duration `json:"max_ns"`
}

// Mean returns the average recorded duration.
func (s TimingSummary) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Snapshot is a point-in-time copy of an InMemoryMetrics.
// Keys are "name:tag=value:..." in the order the tags were given.
type Snapshot struct {
	Counters map[string]int64         `json:"counters"`
	Gauges   map[string]float64       `json:"gauges"`
	Timings  map[string]TimingSummary `json:"timings"`
}

// InMemoryMetrics keeps metrics in process. Timings are summarized so a
// long-running worker holds constant memory per key.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]TimingSummary
}

// NewInMemoryMetrics creates an empty InMemoryMetrics.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]TimingSummary),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	m.counters[formatKey(name, tags)] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	m.gauges[formatKey(name, tags)] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	key := formatKey(name, tags)
	m.mu.Lock()
	s := m.timings[key]
	s.Count++
	s.Total += duration
	s.Max = max(s.Max, duration)
	m.timings[key] = s
	m.mu.Unlock()
}

// GetCounter returns a counter's value.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// GetGauge returns a gauge's last value.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[formatKey(name, tags)]
}

// GetTiming returns the summary recorded for a timing.
func (m *InMemoryMetrics) GetTiming(name string, tags ...Tag) TimingSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timings[formatKey(name, tags)]
}

// Snapshot copies the current values.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Counters: maps.Clone(m.counters),
		Gauges:   maps.Clone(m.gauges),
		Timings:  maps.Clone(m.timings),
	}
}

func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, t := range tags {
		b.WriteString(":" + t.Key + "=" + t.Value)
	}
	return b.String()
}

// Metric names.
const (
	MetricOperationTotal    = "cadence.operation.total"
	MetricOperationDuration = "cadence.operation.duration"
	MetricOperationErrors   = "cadence.operation.errors"

	MetricHabitsCreated     = "cadence.habits.created"
	MetricActivitiesLogged  = "cadence.habits.activities_logged"
	MetricGoalsCompleted    = "cadence.habits.goals_completed"
	MetricMilestonesReached = "cadence.habits.milestones_reached"
	MetricStreaksBroken     = "cadence.habits.streaks_broken"
	MetricProgressShared    = "cadence.habits.progress_shared"

	MetricProgressCacheHits   = "cadence.progress_cache.hits"
	MetricProgressCacheMisses = "cadence.progress_cache.misses"

	MetricEventsPublished    = "cadence.events.published"
	MetricEventsFailed       = "cadence.events.failed"
	MetricEventsDeadLettered = "cadence.events.dead_lettered"
	MetricEventsConsumed     = "cadence.events.consumed"
	MetricOutboxLagSeconds   = "cadence.outbox.lag_seconds"
)
