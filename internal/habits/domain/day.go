package domain

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date without a time of day.
//
// Days are stored as UTC midnight so arithmetic never crosses a DST boundary.
// Day values compare with == and can be used as map keys.
type Day struct {
	t time.Time
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// NewDay builds a Day, normalising out-of-range values the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses an ISO date (YYYY-MM-DD).
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day{t: t}, nil
}

// AddDays returns the day n days later (earlier when n is negative).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

func (d Day) Before(other Day) bool { return d.t.Before(other.t) }
func (d Day) After(other Day) bool  { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool  { return d.t.Equal(other.t) }
func (d Day) IsZero() bool          { return d.t.IsZero() }

// DaysUntil returns the signed number of whole days from d to other.
func (d Day) DaysUntil(other Day) int {
	return int(other.t.Sub(d.t) / (24 * time.Hour))
}

func (d Day) Year() int             { return d.t.Year() }
func (d Day) Month() time.Month     { return d.t.Month() }
func (d Day) DayOfMonth() int       { return d.t.Day() }
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }

// Time returns UTC midnight of the day.
func (d Day) Time() time.Time { return d.t }

// String formats the day as YYYY-MM-DD; the zero Day formats as "".
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dayLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MinDay returns the earlier of two days, ignoring zero values.
func MinDay(a, b Day) Day {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}

// daysInMonth returns the number of days in the day's month.
func (d Day) daysInMonth() int {
	return NewDay(d.Year(), d.Month()+1, 0).DayOfMonth()
}
