package cli

import (
	"context"

	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	habitCommands "github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	habitQueries "github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	"github.com/google/uuid"
)

// EventFlusher delivers domain events queued by a command.
type EventFlusher interface {
	DeliverPending(ctx context.Context) error
}

// App holds the CLI application dependencies.
type App struct {
	// Habit Command Handlers
	CreateHabitHandler    *habitCommands.CreateHabitHandler
	ArchiveHabitHandler   *habitCommands.ArchiveHabitHandler
	UnarchiveHabitHandler *habitCommands.UnarchiveHabitHandler
	DeleteHabitHandler    *habitCommands.DeleteHabitHandler
	DefineMetricHandler   *habitCommands.DefineMetricHandler
	RemoveMetricHandler   *habitCommands.RemoveMetricHandler
	LogActivityHandler    *habitCommands.LogActivityHandler
	DeleteLogHandler      *habitCommands.DeleteLogHandler
	AddGoalHandler        *habitCommands.AddGoalHandler
	ArchiveGoalHandler    *habitCommands.ArchiveGoalHandler
	ShareProgressHandler  *habitCommands.ShareProgressHandler

	// Habit Query Handlers
	ListHabitsHandler          *habitQueries.ListHabitsHandler
	GetHabitHandler            *habitQueries.GetHabitHandler
	GetGoalProgressHandler     *habitQueries.GetGoalProgressHandler
	GetHeatmapHandler          *habitQueries.GetHeatmapHandler
	GetConsistencyTrendHandler *habitQueries.GetConsistencyTrendHandler
	GetPeriodReviewHandler     *habitQueries.GetPeriodReviewHandler

	// Events flushes the outbox after each command. Nil disables delivery.
	Events EventFlusher

	// Ping checks the database connection.
	Ping func(ctx context.Context) error

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application from a wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		CreateHabitHandler:         c.CreateHabitHandler,
		ArchiveHabitHandler:        c.ArchiveHabitHandler,
		UnarchiveHabitHandler:      c.UnarchiveHabitHandler,
		DeleteHabitHandler:         c.DeleteHabitHandler,
		DefineMetricHandler:        c.DefineMetricHandler,
		RemoveMetricHandler:        c.RemoveMetricHandler,
		LogActivityHandler:         c.LogActivityHandler,
		DeleteLogHandler:           c.DeleteLogHandler,
		AddGoalHandler:             c.AddGoalHandler,
		ArchiveGoalHandler:         c.ArchiveGoalHandler,
		ShareProgressHandler:       c.ShareProgressHandler,
		ListHabitsHandler:          c.ListHabitsHandler,
		GetHabitHandler:            c.GetHabitHandler,
		GetGoalProgressHandler:     c.GetGoalProgressHandler,
		GetHeatmapHandler:          c.GetHeatmapHandler,
		GetConsistencyTrendHandler: c.GetConsistencyTrendHandler,
		GetPeriodReviewHandler:     c.GetPeriodReviewHandler,
		Events:                     c,
		Ping:                       c.DBConn.Ping,
		CurrentUserID:              uuid.Nil,
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
