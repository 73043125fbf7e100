package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrHabitEmptyName     = errors.New("habit name cannot be empty")
	ErrHabitInvalidFreq   = errors.New("invalid habit frequency")
	ErrHabitArchived      = errors.New("habit is archived")
	ErrInvalidDailyTarget = errors.New("daily target must be at least 1")
)

// Habit is a user-defined recurring activity and the snapshot the engine reads:
// its metric definitions, activity logs and goals.
type Habit struct {
	sharedDomain.BaseAggregateRoot
	userID      uuid.UUID
	name        string
	icon        string
	color       string
	createdOn   Day
	schedule    Schedule
	dailyTarget int
	archived    bool
	metrics     []*MetricDefinition
	logs        []*ActivityLog
	goals       []*Goal
}

// NewHabit creates a habit starting on now's calendar day.
func NewHabit(userID uuid.UUID, name string, schedule Schedule, now time.Time) (*Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrHabitEmptyName
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	habit := &Habit{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(sharedDomain.NewBaseEntityAt(now)),
		userID:            userID,
		name:              name,
		createdOn:         DayOf(now),
		schedule:          schedule.normalized(),
		dailyTarget:       1,
		metrics:           make([]*MetricDefinition, 0),
		logs:              make([]*ActivityLog, 0),
		goals:             make([]*Goal, 0),
	}

	habit.AddDomainEvent(NewHabitCreated(habit))

	return habit, nil
}

// HabitState is the persisted form of a habit used for rehydration.
type HabitState struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Icon        string
	Color       string
	CreatedOn   Day
	Schedule    Schedule
	DailyTarget int
	Archived    bool
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Metrics     []*MetricDefinition
	Logs        []*ActivityLog
	Goals       []*Goal
}

// RehydrateHabit recreates a habit from persisted state without generating events.
func RehydrateHabit(s HabitState) *Habit {
	baseEntity := sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt)

	h := &Habit{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(baseEntity, s.Version),
		userID:            s.UserID,
		name:              s.Name,
		icon:              s.Icon,
		color:             s.Color,
		createdOn:         s.CreatedOn,
		schedule:          s.Schedule,
		dailyTarget:       s.DailyTarget,
		archived:          s.Archived,
		metrics:           s.Metrics,
		logs:              s.Logs,
		goals:             s.Goals,
	}
	if h.metrics == nil {
		h.metrics = make([]*MetricDefinition, 0)
	}
	if h.logs == nil {
		h.logs = make([]*ActivityLog, 0)
	}
	if h.goals == nil {
		h.goals = make([]*Goal, 0)
	}
	if h.dailyTarget < 1 {
		h.dailyTarget = 1
	}
	return h
}

// Getters
func (h *Habit) UserID() uuid.UUID            { return h.userID }
func (h *Habit) Name() string                 { return h.name }
func (h *Habit) Icon() string                 { return h.icon }
func (h *Habit) Color() string                { return h.color }
func (h *Habit) CreatedOn() Day               { return h.createdOn }
func (h *Habit) Schedule() Schedule           { return h.schedule }
func (h *Habit) DailyTarget() int             { return h.dailyTarget }
func (h *Habit) IsArchived() bool             { return h.archived }
func (h *Habit) Metrics() []*MetricDefinition { return h.metrics }
func (h *Habit) Logs() []*ActivityLog         { return h.logs }
func (h *Habit) Goals() []*Goal               { return h.goals }

// Rename updates the habit name.
func (h *Habit) Rename(name string) error {
	if h.archived {
		return ErrHabitArchived
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrHabitEmptyName
	}
	h.name = name
	h.Bump()
	return nil
}

// SetAppearance updates the icon and color shown for the habit.
func (h *Habit) SetAppearance(icon, color string) {
	h.icon = strings.TrimSpace(icon)
	h.color = strings.TrimSpace(color)
	h.Bump()
}

// SetSchedule replaces the frequency policy.
func (h *Habit) SetSchedule(schedule Schedule) error {
	if h.archived {
		return ErrHabitArchived
	}
	if err := schedule.Validate(); err != nil {
		return err
	}
	h.schedule = schedule.normalized()
	h.Bump()
	return nil
}

// SetDailyTarget sets how many logs a day the user aims for.
func (h *Habit) SetDailyTarget(target int) error {
	if target < 1 {
		return ErrInvalidDailyTarget
	}
	h.dailyTarget = target
	h.Bump()
	return nil
}

// Archive hides the habit from active views.
func (h *Habit) Archive() {
	if !h.archived {
		h.archived = true
		h.Bump()
		h.AddDomainEvent(NewHabitArchived(h))
	}
}

// Unarchive restores an archived habit.
func (h *Habit) Unarchive() {
	if h.archived {
		h.archived = false
		h.Bump()
		h.AddDomainEvent(NewHabitUnarchived(h))
	}
}

// MarkDeleted records the hard delete; the repository removes the rows.
func (h *Habit) MarkDeleted() {
	h.AddDomainEvent(NewHabitDeleted(h))
}

// IsDueOn checks if the habit is scheduled for a given day.
func (h *Habit) IsDueOn(day Day) bool {
	if h.archived {
		return false
	}
	return h.schedule.IsDueOn(h.createdOn, day)
}

// Metric looks up a definition by name, ignoring case.
func (h *Habit) Metric(name string) (*MetricDefinition, bool) {
	for _, m := range h.metrics {
		if strings.EqualFold(m.name, name) {
			return m, true
		}
	}
	return nil, false
}

// DefineMetric adds a metric definition. Names are unique ignoring case.
func (h *Habit) DefineMetric(def *MetricDefinition) error {
	if h.archived {
		return ErrHabitArchived
	}
	if _, exists := h.Metric(def.name); exists {
		return ErrMetricExists
	}
	h.metrics = append(h.metrics, def)
	h.Bump()
	return nil
}

// RemoveMetric drops a definition. Logged points keep their values.
func (h *Habit) RemoveMetric(name string) error {
	for i, m := range h.metrics {
		if strings.EqualFold(m.name, name) {
			h.metrics = append(h.metrics[:i], h.metrics[i+1:]...)
			h.Bump()
			return nil
		}
	}
	return ErrMetricNotFound
}

// LogActivity appends a log on day, stamped with at. Point names take the
// casing of a matching metric definition.
func (h *Habit) LogActivity(day Day, at time.Time, notes string, points []LogPoint) (*ActivityLog, error) {
	if h.archived {
		return nil, ErrHabitArchived
	}
	for _, p := range points {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}

	stored := make([]LogPoint, len(points))
	for i, p := range points {
		name := strings.TrimSpace(p.Metric)
		if def, ok := h.Metric(name); ok {
			name = def.name
		}
		stored[i] = LogPoint{Metric: name, Value: p.Value}
	}

	log := &ActivityLog{
		id:       uuid.New(),
		habitID:  h.ID(),
		day:      day,
		loggedAt: at.UTC(),
		notes:    strings.TrimSpace(notes),
		points:   stored,
	}
	h.logs = append(h.logs, log)
	h.Bump()

	h.AddDomainEvent(NewActivityLogged(h, log))

	return log, nil
}

// DeleteLog removes a log. Goal completion flags stay set.
func (h *Habit) DeleteLog(id uuid.UUID) error {
	for i, l := range h.logs {
		if l.id == id {
			h.logs = append(h.logs[:i], h.logs[i+1:]...)
			h.Bump()
			h.AddDomainEvent(NewActivityDeleted(h, l))
			return nil
		}
	}
	return ErrLogNotFound
}

// LogsOn returns the logs on day ordered by timestamp.
func (h *Habit) LogsOn(day Day) []*ActivityLog {
	out := make([]*ActivityLog, 0)
	for _, l := range h.logs {
		if l.day == day {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].loggedAt.Before(out[j].loggedAt) })
	return out
}

// Goal finds a goal by id.
func (h *Habit) Goal(id uuid.UUID) (*Goal, error) {
	for _, g := range h.goals {
		if g.id == id {
			return g, nil
		}
	}
	return nil, ErrGoalNotFound
}

// ActiveGoals returns the goals that are not archived.
func (h *Habit) ActiveGoals() []*Goal {
	out := make([]*Goal, 0, len(h.goals))
	for _, g := range h.goals {
		if !g.archived {
			out = append(out, g)
		}
	}
	return out
}

// AddGoal attaches a goal. A goal that is already satisfied on today is
// latched complete immediately.
func (h *Habit) AddGoal(goal *Goal, today Day, now time.Time) error {
	if h.archived {
		return ErrHabitArchived
	}
	goal.habitID = h.ID()
	h.goals = append(h.goals, goal)
	h.Bump()
	h.AddDomainEvent(NewGoalAdded(h, goal))

	if goal.LatchCompletion(ProjectProgress(h, goal, today).Value, now) {
		h.AddDomainEvent(NewGoalCompleted(h, goal))
	}
	return nil
}

// ArchiveGoal hides a goal from projections.
func (h *Habit) ArchiveGoal(id uuid.UUID) error {
	goal, err := h.Goal(id)
	if err != nil {
		return err
	}
	if goal.archived {
		return ErrGoalArchived
	}
	goal.Archive()
	h.Bump()
	return nil
}

// RecordStreakBroken notes that the streak ending the day before missed was lost.
func (h *Habit) RecordStreakBroken(lastStreak int, missed Day) {
	h.AddDomainEvent(NewStreakBroken(h, lastStreak, missed))
}
