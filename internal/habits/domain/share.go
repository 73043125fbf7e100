package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidShareRecord is returned when a decoded share record is malformed.
var ErrInvalidShareRecord = errors.New("invalid share record")

// ShareRecord is the portable snapshot of one goal's progress that peers
// render read-only. Field names are part of the wire format.
type ShareRecord struct {
	HabitName   string    `json:"habit_name"`
	HabitIcon   string    `json:"habit_icon"`
	HabitColor  string    `json:"habit_color"`
	GoalKind    GoalKind  `json:"goal_kind"`
	GoalName    string    `json:"goal_name"`
	TargetValue *float64  `json:"target_value,omitempty"`
	TargetDate  *Day      `json:"target_date,omitempty"`
	Progress    float64   `json:"progress"`
	StreakDays  int       `json:"streak_days"`
	IsCompleted bool      `json:"is_completed"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewShareRecord projects goal on today and packages the result.
// Consistency goals report their target occurrences as the target value.
func NewShareRecord(h *Habit, goal *Goal, today Day, now time.Time) ShareRecord {
	progress := ProjectProgress(h, goal, today)

	record := ShareRecord{
		HabitName:   h.name,
		HabitIcon:   h.icon,
		HabitColor:  h.color,
		GoalKind:    goal.kind,
		GoalName:    goal.name,
		Progress:    progress.Value,
		StreakDays:  CurrentStreak(h, today),
		IsCompleted: goal.completed,
		Timestamp:   now.UTC().Truncate(time.Second),
	}

	switch goal.kind {
	case GoalTargetValue, GoalConsistency:
		target := progress.Target
		record.TargetValue = &target
	case GoalDeadline:
		day := goal.targetDay
		record.TargetDate = &day
	}
	return record
}

// Share builds the record for a goal and queues it for peers.
func (h *Habit) Share(goalID uuid.UUID, today Day, now time.Time) (ShareRecord, error) {
	goal, err := h.Goal(goalID)
	if err != nil {
		return ShareRecord{}, err
	}
	record := NewShareRecord(h, goal, today, now)
	h.AddDomainEvent(NewProgressShared(h, goal, record))
	return record, nil
}

// EncodeShareRecord serializes a record to JSON.
func EncodeShareRecord(record ShareRecord) ([]byte, error) {
	return json.Marshal(record)
}

// DecodeShareRecord parses and validates a record received from a peer.
func DecodeShareRecord(data []byte) (ShareRecord, error) {
	var record ShareRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ShareRecord{}, fmt.Errorf("%w: %w", ErrInvalidShareRecord, err)
	}
	if err := record.Validate(); err != nil {
		return ShareRecord{}, err
	}
	return record, nil
}

// Validate checks the fields a peer needs to render the record.
func (r ShareRecord) Validate() error {
	switch {
	case r.HabitName == "":
		return fmt.Errorf("%w: habit_name is required", ErrInvalidShareRecord)
	case !r.GoalKind.IsValid():
		return fmt.Errorf("%w: unknown goal_kind %q", ErrInvalidShareRecord, r.GoalKind)
	case r.Progress < 0 || r.Progress > 1:
		return fmt.Errorf("%w: progress %v outside [0, 1]", ErrInvalidShareRecord, r.Progress)
	case r.StreakDays < 0:
		return fmt.Errorf("%w: negative streak_days", ErrInvalidShareRecord)
	}
	return nil
}
