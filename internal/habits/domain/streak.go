package domain

// CurrentStreak counts consecutive days with a log ending on today.
// It is 0 when today has no log, and never walks past the habit's earliest day.
func CurrentStreak(h *Habit, today Day) int {
	x := h.DayIndex()
	start := h.EarliestDay()

	streak := 0
	for day := today; !day.Before(start) && x.IsMet(day, nil); day = day.AddDays(-1) {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of logged days inside [start, end].
func LongestStreak(h *Habit, start, end Day) int {
	x := h.DayIndex()

	best, run := 0, 0
	for day := start; !day.After(end); day = day.AddDays(1) {
		if !x.IsMet(day, nil) {
			run = 0
			continue
		}
		run++
		best = max(best, run)
	}
	return best
}

// BestStreak is the longest streak since the habit started.
func BestStreak(h *Habit, today Day) int {
	return LongestStreak(h, h.EarliestDay(), today)
}
