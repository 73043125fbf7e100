package domain

// IsDayMet is the day-completion predicate shared by the heatmap, the scorer
// and the streak calculator.
//
// Without a gating goal a day is met when it has at least one log. A
// consistency goal with a metric threshold additionally requires the day's
// aggregate of that metric to reach the threshold.
func (h *Habit) IsDayMet(day Day, goal *Goal) bool {
	return h.DayIndex().IsMet(day, goal)
}

// IsMet applies the IsDayMet predicate against the index.
func (x DayIndex) IsMet(day Day, goal *Goal) bool {
	if x.LogCount(day) == 0 {
		return false
	}
	if goal == nil || !goal.HasThreshold() {
		return true
	}
	return x.Aggregate(goal.metricName, day) >= goal.targetValue
}
