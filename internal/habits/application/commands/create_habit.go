package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// MetricInput describes a metric definition supplied with a command.
type MetricInput struct {
	Name string
	Unit string
	// Aggregation is "sum" or "max". Empty infers the kind from the name.
	Aggregation string
}

func (in MetricInput) toDomain() (*domain.MetricDefinition, error) {
	return domain.NewMetricDefinition(in.Name, in.Unit, domain.AggregationKind(in.Aggregation))
}

// CreateHabitCommand contains the data needed to create a habit.
type CreateHabitCommand struct {
	UserID    uuid.UUID
	Name      string
	Icon      string
	Color     string
	Frequency string
	// Interval is used by every_n_days.
	Interval int
	// Weekdays is a comma-separated list used by specific_weekdays.
	Weekdays    string
	DailyTarget int
	Metrics     []MetricInput
}

func (cmd CreateHabitCommand) schedule() (domain.Schedule, error) {
	if cmd.Frequency == "" {
		return domain.Daily(), nil
	}
	schedule := domain.Schedule{
		Frequency: domain.Frequency(cmd.Frequency),
		Interval:  cmd.Interval,
	}
	if cmd.Weekdays != "" {
		days, err := domain.ParseWeekdays(cmd.Weekdays)
		if err != nil {
			return domain.Schedule{}, err
		}
		schedule.Weekdays = days
	}
	return schedule, nil
}

// CreateHabitResult contains the result of creating a habit.
type CreateHabitResult struct {
	HabitID uuid.UUID
}

// CreateHabitHandler handles the CreateHabitCommand.
type CreateHabitHandler struct {
	store habitStore
	uow   sharedApplication.UnitOfWork
}

// NewCreateHabitHandler creates a new CreateHabitHandler.
func NewCreateHabitHandler(habitRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateHabitHandler {
	return &CreateHabitHandler{
		store: newHabitStore(habitRepo, outboxRepo),
		uow:   uow,
	}
}

// Handle executes the CreateHabitCommand.
func (h *CreateHabitHandler) Handle(ctx context.Context, cmd CreateHabitCommand) (*CreateHabitResult, error) {
	schedule, err := cmd.schedule()
	if err != nil {
		return nil, err
	}

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*CreateHabitResult, error) {
		habit, err := domain.NewHabit(cmd.UserID, cmd.Name, schedule, h.store.now())
		if err != nil {
			return nil, err
		}

		if cmd.Icon != "" || cmd.Color != "" {
			habit.SetAppearance(cmd.Icon, cmd.Color)
		}
		if cmd.DailyTarget > 0 {
			if err := habit.SetDailyTarget(cmd.DailyTarget); err != nil {
				return nil, err
			}
		}
		for _, in := range cmd.Metrics {
			def, err := in.toDomain()
			if err != nil {
				return nil, err
			}
			if err := habit.DefineMetric(def); err != nil {
				return nil, err
			}
		}

		if err := h.store.save(txCtx, habit, cmd.UserID); err != nil {
			return nil, err
		}
		return &CreateHabitResult{HabitID: habit.ID()}, nil
	})
}
