package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// DefaultReviewDays is the length of a review when no start is given.
const DefaultReviewDays = 7

// GetPeriodReviewQuery summarises a habit over [Start, End].
type GetPeriodReviewQuery struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	// Start defaults to DefaultReviewDays before End.
	Start domain.Day
	// End defaults to today.
	End domain.Day
}

// MetricSummary is one metric reduced over the period by its aggregation kind.
type MetricSummary struct {
	Name        string
	Unit        string
	Aggregation string
	Value       float64
	// ActiveDays counts days with a non-zero value.
	ActiveDays int
}

// PeriodReviewDTO summarises a habit over a window of days.
type PeriodReviewDTO struct {
	HabitID       uuid.UUID
	HabitName     string
	Start         domain.Day
	End           domain.Day
	Days          int
	DueDays       int
	MetDays       int
	TotalLogs     int
	LongestStreak int
	// CompletionRate is met due days over due days, or met days over all
	// days when nothing was due.
	CompletionRate float64
	Metrics        []MetricSummary
}

// GetPeriodReviewHandler handles the GetPeriodReviewQuery.
type GetPeriodReviewHandler struct {
	habitRepo domain.Repository
	now       func() time.Time
}

// NewGetPeriodReviewHandler creates a new GetPeriodReviewHandler.
func NewGetPeriodReviewHandler(habitRepo domain.Repository) *GetPeriodReviewHandler {
	return &GetPeriodReviewHandler{habitRepo: habitRepo, now: time.Now}
}

// Handle executes the GetPeriodReviewQuery.
func (h *GetPeriodReviewHandler) Handle(ctx context.Context, query GetPeriodReviewQuery) (*PeriodReviewDTO, error) {
	end := resolveDay(query.End, h.now)
	start := query.Start
	if start.IsZero() {
		start = end.AddDays(-(DefaultReviewDays - 1))
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, start, end)
	}

	habit, err := findOwned(ctx, h.habitRepo, query.HabitID, query.UserID)
	if err != nil {
		return nil, err
	}

	review := &PeriodReviewDTO{
		HabitID:       habit.ID(),
		HabitName:     habit.Name(),
		Start:         start,
		End:           end,
		LongestStreak: domain.LongestStreak(habit, start, end),
		Metrics:       make([]MetricSummary, 0, len(habit.Metrics())),
	}

	days := habit.DayIndex()
	metDue := 0
	for day := start; !day.After(end); day = day.AddDays(1) {
		review.Days++
		met := days.IsMet(day, nil)
		if met {
			review.MetDays++
		}
		if habit.IsDueOn(day) {
			review.DueDays++
			if met {
				metDue++
			}
		}
		review.TotalLogs += days.LogCount(day)
	}

	if review.DueDays > 0 {
		review.CompletionRate = float64(metDue) / float64(review.DueDays)
	} else {
		review.CompletionRate = float64(review.MetDays) / float64(review.Days)
	}

	for _, m := range habit.Metrics() {
		review.Metrics = append(review.Metrics, summarizeMetric(days, m, start, end))
	}

	return review, nil
}

func summarizeMetric(days domain.DayIndex, m *domain.MetricDefinition, start, end domain.Day) MetricSummary {
	summary := MetricSummary{
		Name:        m.Name(),
		Unit:        m.Unit(),
		Aggregation: string(m.Aggregation()),
	}
	for day := start; !day.After(end); day = day.AddDays(1) {
		v := days.Aggregate(m.Name(), day)
		if v != 0 {
			summary.ActiveDays++
		}
		if m.Aggregation() == domain.AggregationMax {
			summary.Value = max(summary.Value, v)
		} else {
			summary.Value += v
		}
	}
	return summary
}
