package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShareRecord_TargetValue(t *testing.T) {
	h := newTestHabit(t, "Run")
	h.SetAppearance("figure.run", "#FF9500")
	goal, err := NewTargetValueGoal("Run 100 km", "Distance", 100, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.AddGoal(goal, testStart, time.Now()))
	logOn(t, h, testStart, LogPoint{Metric: "Distance", Value: 40})
	logOn(t, h, testStart.AddDays(1), LogPoint{Metric: "Distance", Value: 10})
	now := time.Date(2026, time.September, 2, 18, 30, 15, 999, time.UTC)

	record := NewShareRecord(h, goal, testStart.AddDays(1), now)

	assert.Equal(t, "Run", record.HabitName)
	assert.Equal(t, "figure.run", record.HabitIcon)
	assert.Equal(t, "#FF9500", record.HabitColor)
	assert.Equal(t, GoalTargetValue, record.GoalKind)
	require.NotNil(t, record.TargetValue)
	assert.Equal(t, 100.0, *record.TargetValue)
	assert.Nil(t, record.TargetDate)
	assert.InDelta(t, 0.5, record.Progress, 1e-9)
	assert.Equal(t, 2, record.StreakDays)
	assert.False(t, record.IsCompleted)

	raw, err := EncodeShareRecord(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"habit_name": "Run",
		"habit_icon": "figure.run",
		"habit_color": "#FF9500",
		"goal_kind": "target_value",
		"goal_name": "Run 100 km",
		"target_value": 100,
		"progress": 0.5,
		"streak_days": 2,
		"is_completed": false,
		"timestamp": "2026-09-02T18:30:15Z"
	}`, string(raw))
}

func TestNewShareRecord_Deadline(t *testing.T) {
	h := newTestHabit(t, "Marathon prep")
	goal, err := NewDeadlineGoal("Race day", NewDay(2026, time.November, 1), time.Now())
	require.NoError(t, err)
	require.NoError(t, h.AddGoal(goal, testStart, time.Now()))

	raw, err := EncodeShareRecord(NewShareRecord(h, goal, testStart, time.Now()))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "2026-11-01", fields["target_date"])
	assert.NotContains(t, fields, "target_value")
}

func TestHabit_Share(t *testing.T) {
	h := newTestHabit(t, "Meditate")
	goal, err := NewConsistencyGoal("Calm", DifficultyEasy, "", 0, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.AddGoal(goal, testStart, time.Now()))
	h.ClearDomainEvents()

	record, err := h.Share(goal.ID(), testStart, time.Now())
	require.NoError(t, err)
	require.NotNil(t, record.TargetValue)
	assert.Equal(t, 14.0, *record.TargetValue)

	events := h.DomainEvents()
	require.Len(t, events, 1)
	shared, ok := events[0].(*ProgressShared)
	require.True(t, ok)
	assert.Equal(t, record, shared.Record)

	_, err = h.Share(uuid.New(), testStart, time.Now())
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestDecodeShareRecord(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		target := 28.0
		day := NewDay(2026, time.December, 24)
		record := ShareRecord{
			HabitName:   "Read",
			GoalKind:    GoalConsistency,
			GoalName:    "Daily pages",
			TargetValue: &target,
			TargetDate:  &day,
			Progress:    0.75,
			StreakDays:  21,
			IsCompleted: false,
			Timestamp:   time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC),
		}
		raw, err := EncodeShareRecord(record)
		require.NoError(t, err)

		decoded, err := DecodeShareRecord(raw)
		require.NoError(t, err)
		assert.Equal(t, record, decoded)
	})

	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"missing habit", `{"goal_kind":"deadline","progress":0}`},
		{"unknown kind", `{"habit_name":"Read","goal_kind":"streak","progress":0}`},
		{"progress above one", `{"habit_name":"Read","goal_kind":"deadline","progress":1.5}`},
		{"negative streak", `{"habit_name":"Read","goal_kind":"deadline","progress":0,"streak_days":-1}`},
		{"bad target date", `{"habit_name":"Read","goal_kind":"deadline","progress":0,"target_date":"tomorrow"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeShareRecord([]byte(tc.json))
			assert.ErrorIs(t, err, ErrInvalidShareRecord)
		})
	}
}
