package app

import (
	"context"
	"fmt"
	"log/slog"

	habitCommands "github.com/felixgeelhaar/cadence/internal/habits/application/commands"
	habitQueries "github.com/felixgeelhaar/cadence/internal/habits/application/queries"
	habitServices "github.com/felixgeelhaar/cadence/internal/habits/application/services"
	habitSubs "github.com/felixgeelhaar/cadence/internal/habits/application/subscribers"
	habitsDomain "github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/habits/infrastructure/cache"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// drainBatches bounds how much of the outbox the CLI flushes per command.
const drainBatches = 10

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	HabitRepo  habitsDomain.Repository
	OutboxRepo outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Progress cache (Redis when configured, in-memory otherwise)
	ProgressCache cache.ProgressCache

	// Events. EventBus is nil when a broker carries the events.
	EventPublisher  eventbus.Publisher
	EventBus        *eventbus.InProcessEventBus
	OutboxProcessor *outbox.Processor

	// Subscribers
	CacheInvalidator *habitSubs.CacheInvalidator
	ShareFeed        *habitSubs.ShareFeed
	EventMetrics     *habitSubs.EventMetrics

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

	// Rollover
	StreakWatcher *habitServices.StreakWatcher
}

// NewContainer creates and wires all dependencies for the configured driver.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	conn, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()

	if err := c.wireRepositories(conn); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.wireCache(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.wireEvents(); err != nil {
		c.Close()
		return nil, err
	}

	c.wireHandlers()

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"redis", c.RedisClient != nil,
		"broker", c.EventBus == nil,
	)

	return c, nil
}

// NewLocalContainer creates a container for local mode with SQLite.
// This provides zero-config operation without requiring PostgreSQL, Redis, or RabbitMQ.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	local := *cfg
	local.DatabaseDriver = config.DriverSQLite
	local.DatabaseURL = ""
	local.LocalMode = true
	local.RedisURL = ""
	local.RabbitMQURL = ""
	return NewContainer(ctx, &local, logger)
}

// openDatabase connects and brings the schema up to date.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug("running migrations", "driver", conn.Driver())
	if err := conn.Migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}

func (c *Container) wireRepositories(conn database.Connection) error {
	s, err := openStores(conn)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	c.HabitRepo, c.OutboxRepo, c.UnitOfWork = s.habits, s.outbox, s.uow
	return nil
}

// wireCache connects to Redis when configured. Outside production an
// unreachable Redis falls back to the in-memory cache.
func (c *Container) wireCache(ctx context.Context) error {
	if c.Config.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, c.Config.RedisURL)
		if err == nil {
			c.RedisClient = client
			c.ProgressCache = cache.NewRedisProgressCache(client, c.Config.CacheTTL)
			c.Logger.Info("connected to Redis")
			return nil
		}
		if c.Config.IsProduction() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, progress cache will use in-memory fallback", "error", err)
	}

	c.ProgressCache = cache.NewMemoryProgressCache(c.Config.CacheTTL)
	return nil
}

// wireEvents picks the publisher the outbox relays to. With a broker the
// worker's consumer hosts the subscribers; without one they run in process.
func (c *Container) wireEvents() error {
	c.CacheInvalidator = habitSubs.NewCacheInvalidator(c.ProgressCache, c.Logger)
	c.ShareFeed = habitSubs.NewShareFeed(c.Config.ShareFeedSize, c.Logger)
	c.EventMetrics = habitSubs.NewEventMetrics(c.Metrics)

	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err == nil {
			c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.BreakerConfig{
				MaxRequests:      1,
				Timeout:          c.Config.BreakerTimeout,
				FailureThreshold: uint32(max(c.Config.BreakerFailureThreshold, 1)),
			}, c.Logger)
		} else if c.Config.IsProduction() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		} else {
			c.Logger.Warn("RabbitMQ not available, delivering events in process", "error", err)
		}
	}

	if c.EventPublisher == nil {
		c.EventBus = eventbus.NewInProcessEventBus(c.Logger)
		c.EventBus.Registry().SetMetrics(c.Metrics)
		c.RegisterSubscribers(c.EventBus)
		c.EventPublisher = c.EventBus
	}

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     c.Config.OutboxPollInterval,
		BatchSize:        c.Config.OutboxBatchSize,
		MaxRetries:       c.Config.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
		Retention:        c.Config.OutboxRetention(),
	}, c.Logger).WithMetrics(c.Metrics)

	return nil
}

// RegisterSubscribers attaches the habit subscribers to a consumer.
func (c *Container) RegisterSubscribers(consumer interface {
	RegisterConsumer(eventbus.EventConsumer)
}) {
	consumer.RegisterConsumer(c.CacheInvalidator)
	consumer.RegisterConsumer(c.ShareFeed)
	consumer.RegisterConsumer(c.EventMetrics)
}

func (c *Container) wireHandlers() {
	repo, out, uow := c.HabitRepo, c.OutboxRepo, c.UnitOfWork

	// Create habit command handlers
	c.CreateHabitHandler = habitCommands.NewCreateHabitHandler(repo, out, uow)
	c.ArchiveHabitHandler = habitCommands.NewArchiveHabitHandler(repo, out, uow)
	c.UnarchiveHabitHandler = habitCommands.NewUnarchiveHabitHandler(repo, out, uow)
	c.DeleteHabitHandler = habitCommands.NewDeleteHabitHandler(repo, out, uow)
	c.DefineMetricHandler = habitCommands.NewDefineMetricHandler(repo, out, uow)
	c.RemoveMetricHandler = habitCommands.NewRemoveMetricHandler(repo, out, uow)
	c.LogActivityHandler = habitCommands.NewLogActivityHandler(repo, out, uow)
	c.DeleteLogHandler = habitCommands.NewDeleteLogHandler(repo, out, uow)
	c.AddGoalHandler = habitCommands.NewAddGoalHandler(repo, out, uow)
	c.ArchiveGoalHandler = habitCommands.NewArchiveGoalHandler(repo, out, uow)
	c.ShareProgressHandler = habitCommands.NewShareProgressHandler(repo, out, uow)

	// Create habit query handlers
	c.ListHabitsHandler = habitQueries.NewListHabitsHandler(repo)
	c.GetHabitHandler = habitQueries.NewGetHabitHandler(repo)
	c.GetGoalProgressHandler = habitQueries.NewGetGoalProgressHandler(repo, c.ProgressCache, c.Metrics, c.Logger)
	c.GetHeatmapHandler = habitQueries.NewGetHeatmapHandler(repo)
	c.GetConsistencyTrendHandler = habitQueries.NewGetConsistencyTrendHandler(repo, c.Config.TrendPoints)
	c.GetPeriodReviewHandler = habitQueries.NewGetPeriodReviewHandler(repo)

	c.StreakWatcher = habitServices.NewStreakWatcher(repo, out, uow, c.Metrics, c.Logger)
}

// DeliverPending flushes the outbox through the in-process bus. It is a
// no-op when a broker is configured, since the worker relays those events.
func (c *Container) DeliverPending(ctx context.Context) error {
	if c.EventBus == nil || c.OutboxProcessor == nil {
		return nil
	}
	return c.OutboxProcessor.Drain(ctx, drainBatches)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err, "driver", c.DBDriver)
		}
	}
}
