package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// DefaultHeatmapDays is the span shown when no start day is given: twelve weeks.
const DefaultHeatmapDays = 84

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("range ends before it starts")

// GetHeatmapQuery requests the per-day completion grid of a habit.
type GetHeatmapQuery struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	// From defaults to DefaultHeatmapDays before To.
	From domain.Day
	// To defaults to today.
	To domain.Day
	// GoalID gates met days on the goal's metric threshold.
	GoalID uuid.UUID
	// Metric selects the value shown per cell. It defaults to the gating goal's metric.
	Metric string
}

// HeatmapCell is one day of the grid.
type HeatmapCell struct {
	Day   domain.Day
	Met   bool
	Due   bool
	Value float64
	Logs  int
}

// HeatmapDTO is the completion grid of one habit.
type HeatmapDTO struct {
	HabitID   uuid.UUID
	HabitName string
	Metric    string
	From      domain.Day
	To        domain.Day
	Cells     []HeatmapCell
	MetDays   int
	MaxValue  float64
}

// GetHeatmapHandler handles the GetHeatmapQuery.
type GetHeatmapHandler struct {
	habitRepo domain.Repository
	now       func() time.Time
}

// NewGetHeatmapHandler creates a new GetHeatmapHandler.
func NewGetHeatmapHandler(habitRepo domain.Repository) *GetHeatmapHandler {
	return &GetHeatmapHandler{habitRepo: habitRepo, now: time.Now}
}

// Handle executes the GetHeatmapQuery.
func (h *GetHeatmapHandler) Handle(ctx context.Context, query GetHeatmapQuery) (*HeatmapDTO, error) {
	to := resolveDay(query.To, h.now)
	from := query.From
	if from.IsZero() {
		from = to.AddDays(-(DefaultHeatmapDays - 1))
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from, to)
	}

	habit, err := findOwned(ctx, h.habitRepo, query.HabitID, query.UserID)
	if err != nil {
		return nil, err
	}

	var goal *domain.Goal
	if query.GoalID != uuid.Nil {
		if goal, err = habit.Goal(query.GoalID); err != nil {
			return nil, err
		}
	}
	metric := query.Metric
	if metric == "" && goal != nil {
		metric = goal.MetricName()
	}

	heatmap := &HeatmapDTO{
		HabitID:   habit.ID(),
		HabitName: habit.Name(),
		Metric:    metric,
		From:      from,
		To:        to,
		Cells:     make([]HeatmapCell, 0, from.DaysUntil(to)+1),
	}
	days := habit.DayIndex()
	for day := from; !day.After(to); day = day.AddDays(1) {
		cell := HeatmapCell{
			Day:  day,
			Met:  days.IsMet(day, goal),
			Due:  habit.IsDueOn(day),
			Logs: days.LogCount(day),
		}
		if metric != "" {
			cell.Value = days.Aggregate(metric, day)
			heatmap.MaxValue = max(heatmap.MaxValue, cell.Value)
		}
		if cell.Met {
			heatmap.MetDays++
		}
		heatmap.Cells = append(heatmap.Cells, cell)
	}

	return heatmap, nil
}
