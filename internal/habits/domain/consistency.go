package domain

// ScorePoint is the consistency score at the end of a day.
type ScorePoint struct {
	Day   Day
	Score int
}

// step applies one day of the reward/penalty walk.
func step(score int, met bool, tier DifficultyTier) int {
	if met {
		return min(score+1, tier.TargetOccurrences)
	}
	return max(0, score-tier.Penalty)
}

// ConsistencyScore walks every day from the habit's earliest day through
// upto: a met day adds one up to the tier's target, a missed day subtracts
// the tier's penalty down to zero. Non-consistency goals score 0.
func ConsistencyScore(h *Habit, goal *Goal, upto Day) int {
	if goal == nil || goal.kind != GoalConsistency {
		return 0
	}
	tier := goal.difficulty.Tier()
	x := h.DayIndex()

	score := 0
	for day := h.EarliestDay(); !day.After(upto); day = day.AddDays(1) {
		score = step(score, x.IsMet(day, goal), tier)
	}
	return score
}

// ConsistencySeries returns the score at the end of each of the last points
// days ending at upto, computed in one forward walk. Days before the habit
// started score 0. A non-positive points returns every day since the start.
func ConsistencySeries(h *Habit, goal *Goal, upto Day, points int) []ScorePoint {
	start := h.EarliestDay()
	from := start
	if points > 0 {
		from = MinDay(start, upto.AddDays(-(points - 1)))
	}
	if upto.Before(from) {
		return []ScorePoint{}
	}

	var tier DifficultyTier
	if goal != nil && goal.kind == GoalConsistency {
		tier = goal.difficulty.Tier()
	}
	x := h.DayIndex()

	series := make([]ScorePoint, 0, from.DaysUntil(upto)+1)
	score := 0
	for day := from; !day.After(upto); day = day.AddDays(1) {
		score = step(score, x.IsMet(day, goal), tier)
		series = append(series, ScorePoint{Day: day, Score: score})
	}

	if points > 0 && len(series) > points {
		series = series[len(series)-points:]
	}
	return series
}
