package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// DefaultTrendPoints is the number of days a trend covers by default.
const DefaultTrendPoints = 21

// GetConsistencyTrendQuery requests the consistency score history of a goal.
type GetConsistencyTrendQuery struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	GoalID  uuid.UUID
	// Points defaults to DefaultTrendPoints.
	Points int
	Today  domain.Day
}

// ConsistencyTrendDTO is a score series ending today.
type ConsistencyTrendDTO struct {
	GoalID     uuid.UUID
	GoalName   string
	Difficulty string
	// Ceiling is the highest score the goal's tier allows.
	Ceiling int
	Points  []domain.ScorePoint
	Current int
}

// GetConsistencyTrendHandler handles the GetConsistencyTrendQuery.
type GetConsistencyTrendHandler struct {
	habitRepo     domain.Repository
	defaultPoints int
	now           func() time.Time
}

// NewGetConsistencyTrendHandler creates a new GetConsistencyTrendHandler.
// A non-positive defaultPoints uses DefaultTrendPoints.
func NewGetConsistencyTrendHandler(habitRepo domain.Repository, defaultPoints int) *GetConsistencyTrendHandler {
	if defaultPoints <= 0 {
		defaultPoints = DefaultTrendPoints
	}
	return &GetConsistencyTrendHandler{habitRepo: habitRepo, defaultPoints: defaultPoints, now: time.Now}
}

// Handle executes the GetConsistencyTrendQuery.
func (h *GetConsistencyTrendHandler) Handle(ctx context.Context, query GetConsistencyTrendQuery) (*ConsistencyTrendDTO, error) {
	habit, err := findOwned(ctx, h.habitRepo, query.HabitID, query.UserID)
	if err != nil {
		return nil, err
	}
	goal, err := habit.Goal(query.GoalID)
	if err != nil {
		return nil, err
	}
	if goal.Kind() != domain.GoalConsistency {
		return nil, fmt.Errorf("%w: %s is a %s goal", domain.ErrInvalidGoal, goal.Name(), goal.Kind())
	}

	points := query.Points
	if points <= 0 {
		points = h.defaultPoints
	}
	today := resolveDay(query.Today, h.now)
	series := domain.ConsistencySeries(habit, goal, today, points)

	trend := &ConsistencyTrendDTO{
		GoalID:     goal.ID(),
		GoalName:   goal.Name(),
		Difficulty: string(goal.Difficulty()),
		Ceiling:    goal.Difficulty().Tier().TargetOccurrences,
		Points:     series,
	}
	if len(series) > 0 {
		trend.Current = series[len(series)-1].Score
	}
	return trend, nil
}
