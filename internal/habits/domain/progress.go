package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Progress is a goal projected onto a day.
type Progress struct {
	GoalID uuid.UUID `json:"goal_id"`
	Kind   GoalKind  `json:"kind"`
	// Value is the completion fraction in [0, 1]. Deadline goals have none and report 0.
	Value         float64 `json:"value"`
	Current       float64 `json:"current"`
	Target        float64 `json:"target"`
	Unit          string  `json:"unit,omitempty"`
	DaysRemaining int     `json:"days_remaining,omitempty"`
	Display       string  `json:"display"`
	Completed     bool    `json:"completed"`
}

// Percent returns Value as a whole percentage.
func (p Progress) Percent() int {
	return int(math.Round(p.Value * 100))
}

// ProjectProgress converts a goal and the habit's logs into a progress fraction
// and a display string as of today.
func ProjectProgress(h *Habit, goal *Goal, today Day) Progress {
	p := Progress{
		GoalID:    goal.id,
		Kind:      goal.kind,
		Completed: goal.completed,
	}

	switch goal.kind {
	case GoalTargetValue:
		p.Current = roundAmount(h.AggregateTotal(goal.metricName, today))
		p.Target = goal.targetValue
		if def, ok := h.Metric(goal.metricName); ok {
			p.Unit = def.unit
		}
		p.Value = fraction(p.Current, p.Target)
		p.Display = formatAmount(p.Current) + " / " + formatAmount(p.Target)
		if p.Unit != "" {
			p.Display += " " + p.Unit
		}

	case GoalDeadline:
		p.DaysRemaining = max(0, today.DaysUntil(goal.targetDay))
		if p.DaysRemaining == 1 {
			p.Display = "1 day remaining"
		} else {
			p.Display = fmt.Sprintf("%d days remaining", p.DaysRemaining)
		}

	case GoalConsistency:
		tier := goal.difficulty.Tier()
		p.Current = float64(ConsistencyScore(h, goal, today))
		p.Target = float64(tier.TargetOccurrences)
		p.Unit = "days"
		p.Value = fraction(p.Current, p.Target)
		p.Display = fmt.Sprintf("%d / %d days", int(p.Current), tier.TargetOccurrences)
	}

	return p
}

// fraction returns current/target clamped to [0, 1]; a non-positive target is 0.
func fraction(current, target float64) float64 {
	if target <= 0 || math.IsNaN(current) {
		return 0
	}
	return math.Min(1, math.Max(0, current/target))
}

// roundAmount rounds to two decimals, the precision amounts are shown with.
// Sums like ten 0.1 logs then reach their target exactly.
func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatAmount prints at most two decimals and drops trailing zeros.
func formatAmount(v float64) string {
	return strconv.FormatFloat(roundAmount(v), 'f', -1, 64)
}

// Milestone is a celebration threshold in percent.
type Milestone int

const (
	Milestone25  Milestone = 25
	Milestone50  Milestone = 50
	Milestone75  Milestone = 75
	Milestone100 Milestone = 100
)

// Milestones lists every threshold in ascending order.
var Milestones = []Milestone{Milestone25, Milestone50, Milestone75, Milestone100}

// Fraction returns the milestone as a value in [0, 1].
func (m Milestone) Fraction() float64 { return float64(m) / 100 }

func (m Milestone) String() string { return strconv.Itoa(int(m)) + "%" }

// MilestonesCrossed returns the thresholds t with before < t <= after.
func MilestonesCrossed(before, after float64) []Milestone {
	crossed := make([]Milestone, 0)
	for _, m := range Milestones {
		if t := m.Fraction(); before < t && t <= after {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

// GoalUpdate describes how one goal moved during a logging action.
type GoalUpdate struct {
	GoalID     uuid.UUID
	GoalName   string
	Before     float64
	After      float64
	Milestones []Milestone
	Completed  bool
}

// ProgressSnapshot captures the progress fraction of every active goal.
func (h *Habit) ProgressSnapshot(today Day) map[uuid.UUID]float64 {
	snapshot := make(map[uuid.UUID]float64, len(h.goals))
	for _, g := range h.ActiveGoals() {
		snapshot[g.id] = ProjectProgress(h, g, today).Value
	}
	return snapshot
}

// SettleProgress compares every active goal against a snapshot taken before
// the change, emits milestone events for crossed thresholds and latches
// completion. Deadline goals carry no fraction and are skipped.
func (h *Habit) SettleProgress(before map[uuid.UUID]float64, today Day, now time.Time) []GoalUpdate {
	updates := make([]GoalUpdate, 0)
	changed := false

	for _, g := range h.ActiveGoals() {
		if g.kind == GoalDeadline {
			continue
		}
		after := ProjectProgress(h, g, today).Value
		update := GoalUpdate{
			GoalID:     g.id,
			GoalName:   g.name,
			Before:     before[g.id],
			After:      after,
			Milestones: MilestonesCrossed(before[g.id], after),
		}
		for _, m := range update.Milestones {
			h.AddDomainEvent(NewGoalMilestoneReached(h, g, m))
		}
		if g.LatchCompletion(after, now) {
			update.Completed = true
			changed = true
			h.AddDomainEvent(NewGoalCompleted(h, g))
		}
		updates = append(updates, update)
	}

	if changed {
		h.Bump()
	}
	return updates
}
