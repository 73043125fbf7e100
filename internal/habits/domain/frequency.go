package domain

import (
	"fmt"
	"strings"
	"time"
)

// Frequency describes how often a habit is scheduled.
type Frequency string

const (
	FrequencyDaily            Frequency = "daily"
	FrequencyWeekly           Frequency = "weekly"
	FrequencyMonthly          Frequency = "monthly"
	FrequencyEveryNDays       Frequency = "every_n_days"
	FrequencySpecificWeekdays Frequency = "specific_weekdays"
)

// IsValid checks if the frequency is valid.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyEveryNDays, FrequencySpecificWeekdays:
		return true
	default:
		return false
	}
}

// WeekdaySet is a bit set of weekdays, bit i set for time.Weekday(i).
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			s |= 1 << uint(d)
		}
	}
	return s
}

// Contains reports whether d is in the set.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Days returns the weekdays in the set, Sunday first.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set as comma-separated short names ("mon,wed,fri").
func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, strings.ToLower(d.String()[:3]))
	}
	return strings.Join(names, ",")
}

// ParseWeekdays parses a comma-separated list of weekday names.
// Both short ("tue") and long ("tuesday") forms are accepted.
func ParseWeekdays(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			long := strings.ToLower(d.String())
			if part == long || part == long[:3] {
				set |= NewWeekdaySet(d)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown weekday %q", ErrHabitInvalidFreq, part)
		}
	}
	return set, nil
}

// Schedule is a habit's frequency policy.
type Schedule struct {
	Frequency Frequency
	// Interval is the N of every_n_days.
	Interval int
	// Weekdays is used by specific_weekdays.
	Weekdays WeekdaySet
}

// Daily is the default schedule.
func Daily() Schedule {
	return Schedule{Frequency: FrequencyDaily, Interval: 1}
}

// Validate checks the schedule is internally consistent.
func (s Schedule) Validate() error {
	if !s.Frequency.IsValid() {
		return ErrHabitInvalidFreq
	}
	switch s.Frequency {
	case FrequencyEveryNDays:
		if s.Interval < 1 {
			return fmt.Errorf("%w: interval must be at least 1", ErrHabitInvalidFreq)
		}
	case FrequencySpecificWeekdays:
		if s.Weekdays == 0 {
			return fmt.Errorf("%w: at least one weekday is required", ErrHabitInvalidFreq)
		}
	}
	return nil
}

// normalized clears fields the frequency does not use.
func (s Schedule) normalized() Schedule {
	out := Schedule{Frequency: s.Frequency, Interval: 1}
	switch s.Frequency {
	case FrequencyEveryNDays:
		out.Interval = s.Interval
	case FrequencySpecificWeekdays:
		out.Weekdays = s.Weekdays
	}
	return out
}

// IsDueOn reports whether a habit started on start is scheduled on day.
// Days before start are never due.
func (s Schedule) IsDueOn(start, day Day) bool {
	if day.Before(start) {
		return false
	}
	switch s.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return day.Weekday() == start.Weekday()
	case FrequencyMonthly:
		anchor := start.DayOfMonth()
		if last := day.daysInMonth(); anchor > last {
			anchor = last
		}
		return day.DayOfMonth() == anchor
	case FrequencyEveryNDays:
		if s.Interval < 1 {
			return false
		}
		return start.DaysUntil(day)%s.Interval == 0
	case FrequencySpecificWeekdays:
		return s.Weekdays.Contains(day.Weekday())
	default:
		return false
	}
}

// String describes the schedule for listings.
func (s Schedule) String() string {
	switch s.Frequency {
	case FrequencyEveryNDays:
		return fmt.Sprintf("every %d days", s.Interval)
	case FrequencySpecificWeekdays:
		return s.Weekdays.String()
	default:
		return string(s.Frequency)
	}
}
