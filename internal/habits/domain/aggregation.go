package domain

import "strings"

// DayIndex groups a habit's logs by day so walks over a day range touch each
// log once. Build it once per walk; it does not see later changes.
type DayIndex struct {
	habit *Habit
	byDay map[Day][]*ActivityLog
}

// DayIndex snapshots the logs for repeated per-day lookups.
func (h *Habit) DayIndex() DayIndex {
	byDay := make(map[Day][]*ActivityLog, len(h.logs))
	for _, l := range h.logs {
		byDay[l.day] = append(byDay[l.day], l)
	}
	return DayIndex{habit: h, byDay: byDay}
}

// LogCount returns how many logs were recorded on day.
func (x DayIndex) LogCount(day Day) int {
	return len(x.byDay[day])
}

// Aggregate reduces metric over the logs of day.
func (x DayIndex) Aggregate(metric string, day Day) float64 {
	return reduce(x.habit.AggregationFor(metric), metric, x.byDay[day])
}

// reduce folds the values logged for metric across logs. Names match
// ignoring case, like metric definitions.
func reduce(kind AggregationKind, metric string, logs []*ActivityLog) float64 {
	var result float64
	found := false
	for _, l := range logs {
		for _, p := range l.points {
			if !strings.EqualFold(p.Metric, metric) {
				continue
			}
			switch {
			case kind != AggregationMax:
				result += p.Value
			case !found || p.Value > result:
				result = p.Value
			}
			found = true
		}
	}
	return result
}

// AggregationFor returns the kind used to reduce metric. Names without a
// definition fall back to InferAggregation.
func (h *Habit) AggregationFor(metric string) AggregationKind {
	if def, ok := h.Metric(metric); ok {
		return def.aggregation
	}
	return InferAggregation(metric)
}

// Aggregate reduces every value of metric logged on day to one number:
// the sum, or the maximum for max metrics. It is 0 when nothing was logged.
func (h *Habit) Aggregate(metric string, day Day) float64 {
	return reduce(h.AggregationFor(metric), metric, h.LogsOn(day))
}

// AggregateTotal reduces metric over every log on or before upto.
func (h *Habit) AggregateTotal(metric string, upto Day) float64 {
	logs := make([]*ActivityLog, 0, len(h.logs))
	for _, l := range h.logs {
		if !l.day.After(upto) {
			logs = append(logs, l)
		}
	}
	return reduce(h.AggregationFor(metric), metric, logs)
}

// LogCount returns how many logs were recorded on day.
func (h *Habit) LogCount(day Day) int {
	n := 0
	for _, l := range h.logs {
		if l.day == day {
			n++
		}
	}
	return n
}

// EarliestDay is the first day the engine walks from: the creation day, or
// an earlier backfilled log.
func (h *Habit) EarliestDay() Day {
	start := h.createdOn
	for _, l := range h.logs {
		start = MinDay(start, l.day)
	}
	return start
}
