package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		wantErr  bool
	}{
		{"daily", Daily(), false},
		{"weekly", Schedule{Frequency: FrequencyWeekly}, false},
		{"every 3 days", Schedule{Frequency: FrequencyEveryNDays, Interval: 3}, false},
		{"every 0 days", Schedule{Frequency: FrequencyEveryNDays}, true},
		{"weekdays", Schedule{Frequency: FrequencySpecificWeekdays, Weekdays: NewWeekdaySet(time.Monday)}, false},
		{"no weekdays", Schedule{Frequency: FrequencySpecificWeekdays}, true},
		{"unknown", Schedule{Frequency: "hourly"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.schedule.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrHabitInvalidFreq)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchedule_IsDueOn(t *testing.T) {
	// 2026-01-31 is a Saturday.
	start := NewDay(2026, time.January, 31)

	tests := []struct {
		name     string
		schedule Schedule
		day      Day
		want     bool
	}{
		{"daily before start", Daily(), start.AddDays(-1), false},
		{"daily", Daily(), start.AddDays(10), true},
		{"weekly same weekday", Schedule{Frequency: FrequencyWeekly}, start.AddDays(14), true},
		{"weekly other weekday", Schedule{Frequency: FrequencyWeekly}, start.AddDays(3), false},
		{"monthly clamps to february end", Schedule{Frequency: FrequencyMonthly}, NewDay(2026, time.February, 28), true},
		{"monthly not before end", Schedule{Frequency: FrequencyMonthly}, NewDay(2026, time.February, 27), false},
		{"monthly in long month", Schedule{Frequency: FrequencyMonthly}, NewDay(2026, time.March, 31), true},
		{"every 3 days hit", Schedule{Frequency: FrequencyEveryNDays, Interval: 3}, start.AddDays(9), true},
		{"every 3 days miss", Schedule{Frequency: FrequencyEveryNDays, Interval: 3}, start.AddDays(10), false},
		{"specific weekday hit", Schedule{Frequency: FrequencySpecificWeekdays, Weekdays: NewWeekdaySet(time.Monday, time.Thursday)}, NewDay(2026, time.February, 2), true},
		{"specific weekday miss", Schedule{Frequency: FrequencySpecificWeekdays, Weekdays: NewWeekdaySet(time.Monday, time.Thursday)}, NewDay(2026, time.February, 3), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.schedule.IsDueOn(start, tc.day))
		})
	}
}

func TestParseWeekdays(t *testing.T) {
	set, err := ParseWeekdays("mon, Wednesday,fri")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, set.Days())
	assert.Equal(t, "mon,wed,fri", set.String())

	_, err = ParseWeekdays("mon,funday")
	assert.ErrorIs(t, err, ErrHabitInvalidFreq)
}
