package domain

import (
	"errors"
	"strings"
)

var (
	ErrMetricEmptyName    = errors.New("metric name cannot be empty")
	ErrInvalidAggregation = errors.New("invalid aggregation kind")
	ErrMetricExists       = errors.New("metric already defined for this habit")
	ErrMetricNotFound     = errors.New("metric not found")
)

// AggregationKind selects how a metric's values on one day reduce to a scalar.
type AggregationKind string

const (
	// AggregationSum adds values up: distance, volume, reps.
	AggregationSum AggregationKind = "sum"
	// AggregationMax keeps the high-water mark: body weight, lifted mass.
	AggregationMax AggregationKind = "max"
)

// IsValid checks if the aggregation kind is valid.
func (k AggregationKind) IsValid() bool {
	return k == AggregationSum || k == AggregationMax
}

// InferAggregation guesses a kind from a metric name: names mentioning
// weight or mass are high-water marks, everything else is summed.
// It is only consulted when a metric is defined without an explicit kind,
// or when log points reference a name that has no definition.
func InferAggregation(name string) AggregationKind {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "weight") || strings.Contains(lower, "mass") {
		return AggregationMax
	}
	return AggregationSum
}

// MetricDefinition is a named, unit-labelled numeric dimension of a habit.
type MetricDefinition struct {
	name        string
	unit        string
	visible     bool
	aggregation AggregationKind
}

// NewMetricDefinition creates a visible metric. An empty kind is inferred from the name.
func NewMetricDefinition(name, unit string, kind AggregationKind) (*MetricDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMetricEmptyName
	}
	if kind == "" {
		kind = InferAggregation(name)
	}
	if !kind.IsValid() {
		return nil, ErrInvalidAggregation
	}
	return &MetricDefinition{
		name:        name,
		unit:        strings.TrimSpace(unit),
		visible:     true,
		aggregation: kind,
	}, nil
}

// RehydrateMetricDefinition recreates a metric from persisted state.
func RehydrateMetricDefinition(name, unit string, visible bool, kind AggregationKind) *MetricDefinition {
	return &MetricDefinition{name: name, unit: unit, visible: visible, aggregation: kind}
}

func (m *MetricDefinition) Name() string                 { return m.name }
func (m *MetricDefinition) Unit() string                 { return m.unit }
func (m *MetricDefinition) IsVisible() bool              { return m.visible }
func (m *MetricDefinition) Aggregation() AggregationKind { return m.aggregation }

// SetVisible shows or hides the metric in listings.
func (m *MetricDefinition) SetVisible(visible bool) {
	m.visible = visible
}
