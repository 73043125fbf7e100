package persistence

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

// habitRow is the habits table row shared by both drivers.
type habitRow struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Icon        string
	Color       string
	CreatedOn   domain.Day
	Frequency   string
	Interval    int
	Weekdays    int
	DailyTarget int
	Archived    bool
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newHabitRow(h *domain.Habit) habitRow {
	schedule := h.Schedule()
	return habitRow{
		ID:          h.ID(),
		UserID:      h.UserID(),
		Name:        h.Name(),
		Icon:        h.Icon(),
		Color:       h.Color(),
		CreatedOn:   h.CreatedOn(),
		Frequency:   string(schedule.Frequency),
		Interval:    schedule.Interval,
		Weekdays:    int(schedule.Weekdays),
		DailyTarget: h.DailyTarget(),
		Archived:    h.IsArchived(),
		Version:     h.Version(),
		CreatedAt:   h.CreatedAt(),
		UpdatedAt:   h.UpdatedAt(),
	}
}

// children holds the rows owned by one habit.
type children struct {
	metrics []*domain.MetricDefinition
	logs    []*domain.ActivityLog
	goals   []*domain.Goal
}

func (row habitRow) toDomain(c children) *domain.Habit {
	return domain.RehydrateHabit(domain.HabitState{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Icon:      row.Icon,
		Color:     row.Color,
		CreatedOn: row.CreatedOn,
		Schedule: domain.Schedule{
			Frequency: domain.Frequency(row.Frequency),
			Interval:  row.Interval,
			Weekdays:  domain.WeekdaySet(row.Weekdays),
		},
		DailyTarget: row.DailyTarget,
		Archived:    row.Archived,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Metrics:     c.metrics,
		Logs:        c.logs,
		Goals:       c.goals,
	})
}

// logRow accumulates an activity log and its points while scanning.
type logRow struct {
	ID       uuid.UUID
	HabitID  uuid.UUID
	Day      domain.Day
	LoggedAt time.Time
	Notes    string
	Points   []domain.LogPoint
}

func (l *logRow) toDomain() *domain.ActivityLog {
	return domain.RehydrateActivityLog(l.ID, l.HabitID, l.Day, l.LoggedAt, l.Notes, l.Points)
}

// collectLogs turns the ordered (log, point) join into logs, keeping the
// first-seen order of logs.
func collectLogs(rows []logRow) []*domain.ActivityLog {
	var (
		logs  []*domain.ActivityLog
		index = make(map[uuid.UUID]int)
		order []*logRow
	)
	for i := range rows {
		r := &rows[i]
		if at, ok := index[r.ID]; ok {
			order[at].Points = append(order[at].Points, r.Points...)
			continue
		}
		index[r.ID] = len(order)
		order = append(order, r)
	}
	for _, r := range order {
		logs = append(logs, r.toDomain())
	}
	return logs
}
