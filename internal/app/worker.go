package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/robfig/cron/v3"
)

const (
	// jobTimeout bounds one scheduled job run.
	jobTimeout = 5 * time.Minute
	// outboxMaxLag is how old the oldest pending event may get before the
	// worker reports itself degraded.
	outboxMaxLag = 5 * time.Minute

	requestIDHeader = "X-Request-ID"
)

// Worker hosts the background side of the engine: the outbox relay, the
// broker subscribers, the daily streak rollover and outbox cleanup.
type Worker struct {
	c        *Container
	cron     *cron.Cron
	health   *observability.HealthRegistry
	consumer *eventbus.RabbitMQConsumer
	now      func() time.Time
}

// NewWorker schedules the worker jobs and registers health checks.
func NewWorker(c *Container) (*Worker, error) {
	w := &Worker{
		c:      c,
		cron:   cron.New(),
		health: observability.NewHealthRegistry(),
		now:    time.Now,
	}

	if _, err := w.cron.AddFunc(c.Config.RolloverSchedule, w.scheduled("streak rollover", func(ctx context.Context) error {
		_, err := w.Rollover(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", c.Config.RolloverSchedule, err)
	}
	if _, err := w.cron.AddFunc(c.Config.CleanupSchedule, w.scheduled("outbox cleanup", func(ctx context.Context) error {
		_, err := w.CleanupOutbox(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", c.Config.CleanupSchedule, err)
	}

	w.health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	w.health.Register("outbox", observability.OutboxHealthChecker(
		c.OutboxProcessor.IsRunning,
		func() time.Duration {
			return time.Duration(c.OutboxProcessor.GetStats().LagSeconds * float64(time.Second))
		},
		outboxMaxLag,
	))
	if c.RedisClient != nil {
		w.health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if breaker, ok := c.EventPublisher.(*eventbus.BreakerPublisher); ok {
		w.health.Register("rabbitmq", observability.RabbitMQHealthChecker(func(context.Context) error {
			if state := breaker.State(); state == "open" {
				return fmt.Errorf("publisher circuit %s", state)
			}
			return nil
		}))
	}

	return w, nil
}

func (w *Worker) scheduled(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			w.c.Logger.Error("scheduled job failed", "job", name, "error", err)
		}
	}
}

// Start launches the outbox relay, the broker consumer and the scheduler.
func (w *Worker) Start(ctx context.Context) error {
	if w.c.EventBus == nil && w.c.Config.RabbitMQURL != "" {
		registry := eventbus.NewConsumerRegistry(w.c.Logger)
		registry.SetMetrics(w.c.Metrics)
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    w.c.Config.RabbitMQURL,
			Logger: w.c.Logger,
		}, registry)
		if err != nil {
			return err
		}
		w.c.RegisterSubscribers(consumer)
		w.consumer = consumer

		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.c.Logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	if err := w.c.OutboxProcessor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start outbox processor: %w", err)
	}

	w.cron.Start()
	w.c.Logger.Info("worker started",
		"rollover", w.c.Config.RolloverSchedule,
		"cleanup", w.c.Config.CleanupSchedule,
		"broker", w.consumer != nil,
	)
	return nil
}

// Stop waits for running jobs and stops the relay and consumer.
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
	if w.c.OutboxProcessor.IsRunning() {
		w.c.OutboxProcessor.Stop()
	}
	if w.consumer != nil {
		if err := w.consumer.Close(); err != nil {
			w.c.Logger.Warn("error closing event consumer", "error", err)
		}
	}
}

// Rollover reports streaks that broke yesterday and returns how many did.
func (w *Worker) Rollover(ctx context.Context) (int, error) {
	broken, err := w.c.StreakWatcher.Check(ctx, domain.DayOf(w.now()))
	if err != nil {
		return 0, err
	}
	if err := w.c.DeliverPending(ctx); err != nil {
		w.c.Logger.Warn("failed to deliver rollover events", "error", err)
	}
	return len(broken), nil
}

// CleanupOutbox removes published messages past retention.
func (w *Worker) CleanupOutbox(ctx context.Context) (int64, error) {
	return w.c.OutboxProcessor.Cleanup(ctx, w.now())
}

// Handler serves the worker's health and feed endpoints.
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		stats := w.c.OutboxProcessor.GetStats()
		writeJSON(rw, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"lag_seconds":       stats.LagSeconds,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})

	mux.HandleFunc("/readyz", func(rw http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		health := w.health.GetOverallHealth(checkCtx)
		status := http.StatusOK
		if health.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(rw, status, health)
	})

	mux.HandleFunc("/feed", func(rw http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		writeJSON(rw, http.StatusOK, w.c.ShareFeed.Latest(n))
	})

	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		writeJSON(rw, http.StatusOK, w.c.Metrics.Snapshot())
	})

	return w.withRequestID(mux)
}

// withRequestID tags each request context with X-Request-ID, or a fresh id,
// and echoes it back.
func (w *Worker) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ctx := observability.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		id := observability.RequestIDFromContext(ctx)
		rw.Header().Set(requestIDHeader, id)
		w.c.Logger.DebugContext(ctx, "worker request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(rw, r.WithContext(ctx))
	})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
