package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLogNotFound     = errors.New("activity log not found")
	ErrInvalidLogPoint = errors.New("log point needs a metric name and a finite value")
)

// LogPoint is one metric reading inside a log. Metric is matched by name
// against the habit's definitions; unknown names are kept but never aggregated
// under another metric.
type LogPoint struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

func (p LogPoint) validate() error {
	if strings.TrimSpace(p.Metric) == "" || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return ErrInvalidLogPoint
	}
	return nil
}

// ActivityLog records one logging action on a calendar day.
type ActivityLog struct {
	id       uuid.UUID
	habitID  uuid.UUID
	day      Day
	loggedAt time.Time
	notes    string
	points   []LogPoint
}

// RehydrateActivityLog recreates a log from persisted state.
func RehydrateActivityLog(id, habitID uuid.UUID, day Day, loggedAt time.Time, notes string, points []LogPoint) *ActivityLog {
	return &ActivityLog{
		id:       id,
		habitID:  habitID,
		day:      day,
		loggedAt: loggedAt,
		notes:    notes,
		points:   points,
	}
}

func (l *ActivityLog) ID() uuid.UUID       { return l.id }
func (l *ActivityLog) HabitID() uuid.UUID  { return l.habitID }
func (l *ActivityLog) Day() Day            { return l.day }
func (l *ActivityLog) LoggedAt() time.Time { return l.loggedAt }
func (l *ActivityLog) Notes() string       { return l.notes }

// Points returns a copy of the log's metric readings.
func (l *ActivityLog) Points() []LogPoint {
	out := make([]LogPoint, len(l.points))
	copy(out, l.points)
	return out
}
