package queries

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// ListHabitsQuery contains the parameters for listing habits.
type ListHabitsQuery struct {
	UserID          uuid.UUID
	IncludeArchived bool
	OnlyArchived    bool
	OnlyDueToday    bool
	Frequency       string // Filter by frequency: "daily", "weekly", etc.
	HasStreak       bool   // Only show habits with active streaks
	BrokenStreak    bool   // Only show habits that had a streak and lost it
	SortBy          string // "name", "streak", "best_streak", "created_at"
	SortOrder       string // "asc", "desc"
	// Today defaults to the current day.
	Today domain.Day
}

// ListHabitsHandler handles the ListHabitsQuery.
type ListHabitsHandler struct {
	habitRepo domain.Repository
	now       func() time.Time
}

// NewListHabitsHandler creates a new ListHabitsHandler.
func NewListHabitsHandler(habitRepo domain.Repository) *ListHabitsHandler {
	return &ListHabitsHandler{habitRepo: habitRepo, now: time.Now}
}

// Handle executes the ListHabitsQuery.
func (h *ListHabitsHandler) Handle(ctx context.Context, query ListHabitsQuery) ([]HabitDTO, error) {
	var (
		habits []*domain.Habit
		err    error
	)
	if query.IncludeArchived || query.OnlyArchived {
		habits, err = h.habitRepo.FindByUserID(ctx, query.UserID)
	} else {
		habits, err = h.habitRepo.FindActiveByUserID(ctx, query.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	today := resolveDay(query.Today, h.now)
	dtos := make([]HabitDTO, 0, len(habits))
	for _, habit := range habits {
		dto := toHabitDTO(habit, today)
		if query.keep(dto) {
			dtos = append(dtos, dto)
		}
	}

	sortHabits(dtos, query.SortBy, query.SortOrder)
	return dtos, nil
}

func (q ListHabitsQuery) keep(dto HabitDTO) bool {
	switch {
	case q.OnlyArchived && !dto.IsArchived:
		return false
	case q.OnlyDueToday && !dto.IsDueToday:
		return false
	case q.Frequency != "" && dto.Frequency != q.Frequency:
		return false
	case q.HasStreak && dto.Streak == 0:
		return false
	case q.BrokenStreak && (dto.BestStreak == 0 || dto.Streak > 0):
		return false
	}
	return true
}

// sortHabits orders dtos in place. Unknown keys keep repository order.
func sortHabits(dtos []HabitDTO, sortBy, sortOrder string) {
	var compare func(a, b HabitDTO) int
	switch sortBy {
	case "name":
		compare = func(a, b HabitDTO) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
		if sortOrder == "" {
			sortOrder = "asc"
		}
	case "streak":
		compare = func(a, b HabitDTO) int { return cmp.Compare(a.Streak, b.Streak) }
	case "best_streak":
		compare = func(a, b HabitDTO) int { return cmp.Compare(a.BestStreak, b.BestStreak) }
	case "created_at":
		compare = func(a, b HabitDTO) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return
	}

	if sortOrder != "asc" {
		asc := compare
		compare = func(a, b HabitDTO) int { return asc(b, a) }
	}
	slices.SortStableFunc(dtos, compare)
}
