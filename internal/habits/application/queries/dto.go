package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// ErrHabitNotFound is returned when a habit is not found or belongs to another user.
var ErrHabitNotFound = errors.New("habit not found")

// HabitDTO is a data transfer object for habits.
type HabitDTO struct {
	ID             uuid.UUID
	Name           string
	Icon           string
	Color          string
	Frequency      string
	Schedule       string
	DailyTarget    int
	Streak         int
	BestStreak     int
	LogsToday      int
	LoggedToday    bool
	IsDueToday     bool
	IsArchived     bool
	ActiveGoals    int
	CreatedOn      domain.Day
	CreatedAt      time.Time
	LastActivityOn *domain.Day
}

// MetricDTO is a data transfer object for metric definitions.
type MetricDTO struct {
	Name        string
	Unit        string
	Aggregation string
	Visible     bool
}

// GoalDTO is a goal with its projection on the query day.
type GoalDTO struct {
	ID          uuid.UUID
	Name        string
	Kind        string
	Metric      string
	Target      float64
	TargetDay   *domain.Day
	Difficulty  string
	Archived    bool
	Completed   bool
	CompletedAt *time.Time
	Progress    domain.Progress
}

// LogDTO is a data transfer object for activity logs.
type LogDTO struct {
	ID       uuid.UUID
	Day      domain.Day
	LoggedAt time.Time
	Notes    string
	Points   []domain.LogPoint
}

func toHabitDTO(h *domain.Habit, today domain.Day) HabitDTO {
	logsToday := h.LogCount(today)
	dto := HabitDTO{
		ID:          h.ID(),
		Name:        h.Name(),
		Icon:        h.Icon(),
		Color:       h.Color(),
		Frequency:   string(h.Schedule().Frequency),
		Schedule:    h.Schedule().String(),
		DailyTarget: h.DailyTarget(),
		Streak:      domain.CurrentStreak(h, today),
		BestStreak:  domain.BestStreak(h, today),
		LogsToday:   logsToday,
		LoggedToday: logsToday > 0,
		IsDueToday:  h.IsDueOn(today),
		IsArchived:  h.IsArchived(),
		ActiveGoals: len(h.ActiveGoals()),
		CreatedOn:   h.CreatedOn(),
		CreatedAt:   h.CreatedAt(),
	}
	for _, l := range h.Logs() {
		if l.Day().After(today) {
			continue
		}
		if dto.LastActivityOn == nil || l.Day().After(*dto.LastActivityOn) {
			day := l.Day()
			dto.LastActivityOn = &day
		}
	}
	return dto
}

func toMetricDTO(m *domain.MetricDefinition) MetricDTO {
	return MetricDTO{
		Name:        m.Name(),
		Unit:        m.Unit(),
		Aggregation: string(m.Aggregation()),
		Visible:     m.IsVisible(),
	}
}

func toGoalDTO(g *domain.Goal, progress domain.Progress) GoalDTO {
	dto := GoalDTO{
		ID:          g.ID(),
		Name:        g.Name(),
		Kind:        string(g.Kind()),
		Metric:      g.MetricName(),
		Target:      g.TargetValue(),
		Difficulty:  string(g.Difficulty()),
		Archived:    g.IsArchived(),
		Completed:   g.IsCompleted(),
		CompletedAt: g.CompletedAt(),
		Progress:    progress,
	}
	if !g.TargetDay().IsZero() {
		day := g.TargetDay()
		dto.TargetDay = &day
	}
	return dto
}

func toLogDTO(l *domain.ActivityLog) LogDTO {
	return LogDTO{
		ID:       l.ID(),
		Day:      l.Day(),
		LoggedAt: l.LoggedAt(),
		Notes:    l.Notes(),
		Points:   l.Points(),
	}
}

// findOwned loads a habit. Habits of other users are reported as not found.
func findOwned(ctx context.Context, repo domain.Repository, habitID, userID uuid.UUID) (*domain.Habit, error) {
	habit, err := repo.FindByID(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("find habit: %w", err)
	}
	if habit == nil || habit.UserID() != userID {
		return nil, ErrHabitNotFound
	}
	return habit, nil
}

// resolveDay returns day, or the calendar day of now when day is zero.
func resolveDay(day domain.Day, now func() time.Time) domain.Day {
	if day.IsZero() {
		return domain.DayOf(now())
	}
	return day
}
