package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrInvalidGoal  = errors.New("invalid goal")
	ErrGoalArchived = errors.New("goal is archived")
)

// GoalKind tags the variant of a goal.
type GoalKind string

const (
	// GoalTargetValue reaches a cumulative (or high-water) metric total.
	GoalTargetValue GoalKind = "target_value"
	// GoalDeadline counts down to a calendar day.
	GoalDeadline GoalKind = "deadline"
	// GoalConsistency sustains a bounded reward/penalty score.
	GoalConsistency GoalKind = "consistency"
)

// IsValid checks if the goal kind is valid.
func (k GoalKind) IsValid() bool {
	switch k {
	case GoalTargetValue, GoalDeadline, GoalConsistency:
		return true
	default:
		return false
	}
}

// Difficulty is the tier of a consistency goal.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyTier holds the scorer parameters of a difficulty.
type DifficultyTier struct {
	TargetOccurrences int
	Penalty           int
}

// Tier returns the scorer parameters. Unknown difficulties map to the zero tier.
func (d Difficulty) Tier() DifficultyTier {
	switch d {
	case DifficultyEasy:
		return DifficultyTier{TargetOccurrences: 14, Penalty: 2}
	case DifficultyMedium:
		return DifficultyTier{TargetOccurrences: 28, Penalty: 4}
	case DifficultyHard:
		return DifficultyTier{TargetOccurrences: 42, Penalty: 6}
	default:
		return DifficultyTier{}
	}
}

// IsValid checks if the difficulty is one of the known tiers.
func (d Difficulty) IsValid() bool {
	return d.Tier().TargetOccurrences > 0
}

// Goal is a target condition attached to a habit.
//
// The meaning of metricName and targetValue depends on kind: a target_value
// goal sums (or maxes) metricName up to targetValue, a consistency goal may
// use them as a per-day threshold, a deadline goal ignores them.
type Goal struct {
	id          uuid.UUID
	habitID     uuid.UUID
	name        string
	kind        GoalKind
	metricName  string
	targetValue float64
	targetDay   Day
	difficulty  Difficulty
	archived    bool
	completed   bool
	completedAt *time.Time
	createdAt   time.Time
}

// NewTargetValueGoal creates a goal that completes when the metric total reaches target.
func NewTargetValueGoal(name, metric string, target float64, now time.Time) (*Goal, error) {
	metric = strings.TrimSpace(metric)
	if metric == "" || target <= 0 {
		return nil, fmt.Errorf("%w: target value goals need a metric and a positive target", ErrInvalidGoal)
	}
	g := newGoal(name, GoalTargetValue, now)
	g.metricName = metric
	g.targetValue = target
	return g, nil
}

// NewDeadlineGoal creates a goal that counts down to day.
func NewDeadlineGoal(name string, day Day, now time.Time) (*Goal, error) {
	if day.IsZero() {
		return nil, fmt.Errorf("%w: deadline goals need a target day", ErrInvalidGoal)
	}
	g := newGoal(name, GoalDeadline, now)
	g.targetDay = day
	return g, nil
}

// NewConsistencyGoal creates a consistency goal. When metric is set the day
// only counts if the metric's daily aggregate reaches threshold.
func NewConsistencyGoal(name string, difficulty Difficulty, metric string, threshold float64, now time.Time) (*Goal, error) {
	if !difficulty.IsValid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidGoal, difficulty)
	}
	metric = strings.TrimSpace(metric)
	if metric != "" && threshold <= 0 {
		return nil, fmt.Errorf("%w: a metric threshold must be positive", ErrInvalidGoal)
	}
	g := newGoal(name, GoalConsistency, now)
	g.difficulty = difficulty
	if metric != "" {
		g.metricName = metric
		g.targetValue = threshold
	}
	return g, nil
}

func newGoal(name string, kind GoalKind, now time.Time) *Goal {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultGoalName(kind)
	}
	return &Goal{
		id:        uuid.New(),
		name:      name,
		kind:      kind,
		createdAt: now.UTC(),
	}
}

func defaultGoalName(kind GoalKind) string {
	switch kind {
	case GoalTargetValue:
		return "Target"
	case GoalDeadline:
		return "Deadline"
	default:
		return "Consistency"
	}
}

// RehydrateGoal recreates a goal from persisted state. No validation is
// applied, so a malformed row still loads and projects to 0% progress.
func RehydrateGoal(
	id, habitID uuid.UUID,
	name string,
	kind GoalKind,
	metricName string,
	targetValue float64,
	targetDay Day,
	difficulty Difficulty,
	archived, completed bool,
	completedAt *time.Time,
	createdAt time.Time,
) *Goal {
	return &Goal{
		id:          id,
		habitID:     habitID,
		name:        name,
		kind:        kind,
		metricName:  metricName,
		targetValue: targetValue,
		targetDay:   targetDay,
		difficulty:  difficulty,
		archived:    archived,
		completed:   completed,
		completedAt: completedAt,
		createdAt:   createdAt,
	}
}

func (g *Goal) ID() uuid.UUID           { return g.id }
func (g *Goal) HabitID() uuid.UUID      { return g.habitID }
func (g *Goal) Name() string            { return g.name }
func (g *Goal) Kind() GoalKind          { return g.kind }
func (g *Goal) MetricName() string      { return g.metricName }
func (g *Goal) TargetValue() float64    { return g.targetValue }
func (g *Goal) TargetDay() Day          { return g.targetDay }
func (g *Goal) Difficulty() Difficulty  { return g.difficulty }
func (g *Goal) IsArchived() bool        { return g.archived }
func (g *Goal) IsCompleted() bool       { return g.completed }
func (g *Goal) CompletedAt() *time.Time { return g.completedAt }
func (g *Goal) CreatedAt() time.Time    { return g.createdAt }

// HasThreshold reports whether a consistency goal gates days on a metric.
func (g *Goal) HasThreshold() bool {
	return g.kind == GoalConsistency && g.metricName != "" && g.targetValue > 0
}

// LatchCompletion marks the goal completed the first time value reaches 1.
// It reports whether this call flipped the flag. Completion never resets.
func (g *Goal) LatchCompletion(value float64, now time.Time) bool {
	if g.completed || g.kind == GoalDeadline || value < 1 {
		return false
	}
	at := now.UTC()
	g.completed = true
	g.completedAt = &at
	return true
}

// Archive hides the goal from projections.
func (g *Goal) Archive() {
	g.archived = true
}
