package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "Habit"

// Routing keys of habit events.
const (
	RoutingHabitCreated     = "habits.habit.created"
	RoutingHabitArchived    = "habits.habit.archived"
	RoutingHabitUnarchived  = "habits.habit.unarchived"
	RoutingHabitDeleted     = "habits.habit.deleted"
	RoutingActivityLogged   = "habits.activity.logged"
	RoutingActivityDeleted  = "habits.activity.deleted"
	RoutingGoalAdded        = "habits.goal.added"
	RoutingMilestoneReached = "habits.goal.milestone_reached"
	RoutingGoalCompleted    = "habits.goal.completed"
	RoutingStreakBroken     = "habits.streak.broken"
	RoutingProgressShared   = "habits.progress.shared"
)

// HabitCreated is emitted when a habit is created.
type HabitCreated struct {
	sharedDomain.BaseEvent
	HabitID   uuid.UUID `json:"habit_id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Frequency string    `json:"frequency"`
	CreatedOn Day       `json:"created_on"`
}

// NewHabitCreated creates a HabitCreated event.
func NewHabitCreated(h *Habit) *HabitCreated {
	return &HabitCreated{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingHabitCreated),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		Name:      h.Name(),
		Frequency: string(h.schedule.Frequency),
		CreatedOn: h.createdOn,
	}
}

// HabitLifecycleChanged is emitted when a habit is archived, unarchived or deleted.
type HabitLifecycleChanged struct {
	sharedDomain.BaseEvent
	HabitID uuid.UUID `json:"habit_id"`
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
}

func newLifecycleEvent(h *Habit, routingKey string) *HabitLifecycleChanged {
	return &HabitLifecycleChanged{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, routingKey),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		Name:      h.Name(),
	}
}

// NewHabitArchived creates a habits.habit.archived event.
func NewHabitArchived(h *Habit) *HabitLifecycleChanged {
	return newLifecycleEvent(h, RoutingHabitArchived)
}

// NewHabitUnarchived creates a habits.habit.unarchived event.
func NewHabitUnarchived(h *Habit) *HabitLifecycleChanged {
	return newLifecycleEvent(h, RoutingHabitUnarchived)
}

// NewHabitDeleted creates a habits.habit.deleted event.
func NewHabitDeleted(h *Habit) *HabitLifecycleChanged {
	return newLifecycleEvent(h, RoutingHabitDeleted)
}

// ActivityLogged is emitted when a log is appended.
type ActivityLogged struct {
	sharedDomain.BaseEvent
	HabitID  uuid.UUID  `json:"habit_id"`
	UserID   uuid.UUID  `json:"user_id"`
	LogID    uuid.UUID  `json:"log_id"`
	Day      Day        `json:"day"`
	LoggedAt time.Time  `json:"logged_at"`
	Points   []LogPoint `json:"points"`
}

// NewActivityLogged creates an ActivityLogged event.
func NewActivityLogged(h *Habit, l *ActivityLog) *ActivityLogged {
	return &ActivityLogged{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingActivityLogged),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		LogID:     l.id,
		Day:       l.day,
		LoggedAt:  l.loggedAt,
		Points:    l.Points(),
	}
}

// ActivityDeleted is emitted when a log is removed.
type ActivityDeleted struct {
	sharedDomain.BaseEvent
	HabitID uuid.UUID `json:"habit_id"`
	UserID  uuid.UUID `json:"user_id"`
	LogID   uuid.UUID `json:"log_id"`
	Day     Day       `json:"day"`
}

// NewActivityDeleted creates an ActivityDeleted event.
func NewActivityDeleted(h *Habit, l *ActivityLog) *ActivityDeleted {
	return &ActivityDeleted{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingActivityDeleted),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		LogID:     l.id,
		Day:       l.day,
	}
}

// GoalAdded is emitted when a goal is attached to a habit.
type GoalAdded struct {
	sharedDomain.BaseEvent
	HabitID uuid.UUID `json:"habit_id"`
	UserID  uuid.UUID `json:"user_id"`
	GoalID  uuid.UUID `json:"goal_id"`
	Name    string    `json:"name"`
	Kind    GoalKind  `json:"kind"`
}

// NewGoalAdded creates a GoalAdded event.
func NewGoalAdded(h *Habit, g *Goal) *GoalAdded {
	return &GoalAdded{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingGoalAdded),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		GoalID:    g.id,
		Name:      g.name,
		Kind:      g.kind,
	}
}

// GoalMilestoneReached is the one-shot celebration signal for a crossed threshold.
type GoalMilestoneReached struct {
	sharedDomain.BaseEvent
	HabitID   uuid.UUID `json:"habit_id"`
	UserID    uuid.UUID `json:"user_id"`
	GoalID    uuid.UUID `json:"goal_id"`
	GoalName  string    `json:"goal_name"`
	Milestone Milestone `json:"milestone"`
}

// NewGoalMilestoneReached creates a GoalMilestoneReached event.
func NewGoalMilestoneReached(h *Habit, g *Goal, m Milestone) *GoalMilestoneReached {
	return &GoalMilestoneReached{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingMilestoneReached),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		GoalID:    g.id,
		GoalName:  g.name,
		Milestone: m,
	}
}

// GoalCompleted is emitted once, when a goal's completion latch flips.
type GoalCompleted struct {
	sharedDomain.BaseEvent
	HabitID     uuid.UUID `json:"habit_id"`
	UserID      uuid.UUID `json:"user_id"`
	GoalID      uuid.UUID `json:"goal_id"`
	GoalName    string    `json:"goal_name"`
	Kind        GoalKind  `json:"kind"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewGoalCompleted creates a GoalCompleted event.
func NewGoalCompleted(h *Habit, g *Goal) *GoalCompleted {
	e := &GoalCompleted{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingGoalCompleted),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		GoalID:    g.id,
		GoalName:  g.name,
		Kind:      g.kind,
	}
	if g.completedAt != nil {
		e.CompletedAt = *g.completedAt
	}
	return e
}

// StreakBroken is emitted when a streak ends because a day was missed.
type StreakBroken struct {
	sharedDomain.BaseEvent
	HabitID    uuid.UUID `json:"habit_id"`
	UserID     uuid.UUID `json:"user_id"`
	LastStreak int       `json:"last_streak"`
	MissedDay  Day       `json:"missed_day"`
}

// NewStreakBroken creates a StreakBroken event.
func NewStreakBroken(h *Habit, lastStreak int, missed Day) *StreakBroken {
	return &StreakBroken{
		BaseEvent:  sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingStreakBroken),
		HabitID:    h.ID(),
		UserID:     h.UserID(),
		LastStreak: lastStreak,
		MissedDay:  missed,
	}
}

// ProgressShared carries a share record to peers.
type ProgressShared struct {
	sharedDomain.BaseEvent
	HabitID uuid.UUID   `json:"habit_id"`
	UserID  uuid.UUID   `json:"user_id"`
	GoalID  uuid.UUID   `json:"goal_id"`
	Record  ShareRecord `json:"record"`
}

// NewProgressShared creates a ProgressShared event.
func NewProgressShared(h *Habit, g *Goal, record ShareRecord) *ProgressShared {
	return &ProgressShared{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), aggregateType, RoutingProgressShared),
		HabitID:   h.ID(),
		UserID:    h.UserID(),
		GoalID:    g.id,
		Record:    record,
	}
}
