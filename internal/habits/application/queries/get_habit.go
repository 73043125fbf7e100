package queries

import (
	"context"
	"slices"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// DefaultRecentLogs is how many logs a habit detail shows.
const DefaultRecentLogs = 10

// GetHabitQuery contains the parameters for getting a single habit.
type GetHabitQuery struct {
	HabitID uuid.UUID
	UserID  uuid.UUID // For authorization check
	// IncludeArchivedGoals also returns archived goals.
	IncludeArchivedGoals bool
	// RecentLogs caps the returned logs, newest first. Zero uses DefaultRecentLogs.
	RecentLogs int
	Today      domain.Day
}

// HabitDetailDTO is a habit with its metrics, goals and latest logs.
type HabitDetailDTO struct {
	HabitDTO
	Metrics    []MetricDTO
	Goals      []GoalDTO
	RecentLogs []LogDTO
	TotalLogs  int
}

// GetHabitHandler handles the GetHabitQuery.
type GetHabitHandler struct {
	habitRepo domain.Repository
	now       func() time.Time
}

// NewGetHabitHandler creates a new GetHabitHandler.
func NewGetHabitHandler(habitRepo domain.Repository) *GetHabitHandler {
	return &GetHabitHandler{habitRepo: habitRepo, now: time.Now}
}

// Handle executes the GetHabitQuery.
func (h *GetHabitHandler) Handle(ctx context.Context, query GetHabitQuery) (*HabitDetailDTO, error) {
	habit, err := findOwned(ctx, h.habitRepo, query.HabitID, query.UserID)
	if err != nil {
		return nil, err
	}

	today := resolveDay(query.Today, h.now)
	detail := &HabitDetailDTO{
		HabitDTO:   toHabitDTO(habit, today),
		Metrics:    make([]MetricDTO, 0, len(habit.Metrics())),
		Goals:      make([]GoalDTO, 0, len(habit.Goals())),
		RecentLogs: make([]LogDTO, 0),
		TotalLogs:  len(habit.Logs()),
	}

	for _, m := range habit.Metrics() {
		detail.Metrics = append(detail.Metrics, toMetricDTO(m))
	}
	for _, g := range habit.Goals() {
		if g.IsArchived() && !query.IncludeArchivedGoals {
			continue
		}
		detail.Goals = append(detail.Goals, toGoalDTO(g, domain.ProjectProgress(habit, g, today)))
	}

	limit := query.RecentLogs
	if limit <= 0 {
		limit = DefaultRecentLogs
	}
	logs := slices.Clone(habit.Logs())
	slices.SortFunc(logs, func(a, b *domain.ActivityLog) int {
		if c := b.Day().Time().Compare(a.Day().Time()); c != 0 {
			return c
		}
		return b.LoggedAt().Compare(a.LoggedAt())
	})
	for _, l := range logs[:min(limit, len(logs))] {
		detail.RecentLogs = append(detail.RecentLogs, toLogDTO(l))
	}

	return detail, nil
}
