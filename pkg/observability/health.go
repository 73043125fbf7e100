package observability

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is the result of a health check.
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker is a function that performs a health check.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry runs the health checks of the worker's dependencies.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker)}
}

// Register adds a health checker for a component, replacing any previous one.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Names returns the registered component names.
func (r *HealthRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	return names
}

// Check runs all health checks concurrently.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.RLock()
	checkers := maps.Clone(r.checkers)
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]HealthCheckResult, len(checkers))
	)
	for name, checker := range checkers {
		wg.Go(func() {
			start := time.Now()
			result := checker(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		})
	}
	wg.Wait()

	return results
}

// OverallStatus folds results into the worst status seen.
func OverallStatus(results map[string]HealthCheckResult) HealthStatus {
	status := HealthStatusHealthy
	for _, result := range results {
		switch result.Status {
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case HealthStatusDegraded:
			status = HealthStatusDegraded
		}
	}
	return status
}

// OverallHealth returns a summary of the health status.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs all checks and returns overall health.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	checks := r.Check(ctx)
	return OverallHealth{
		Status:    OverallStatus(checks),
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// pingChecker reports failStatus when ping fails.
func pingChecker(component string, failStatus HealthStatus, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  failStatus,
				Message: component + " connection failed: " + err.Error(),
			}
		}
		return HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: component + " connection healthy",
		}
	}
}

// DatabaseHealthChecker fails the worker when the habit store is unreachable.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return pingChecker("database", HealthStatusUnhealthy, ping)
}

// RedisHealthChecker degrades: progress falls back to recomputation.
func RedisHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return pingChecker("redis", HealthStatusDegraded, ping)
}

// RabbitMQHealthChecker degrades: events stay in the outbox until the broker returns.
func RabbitMQHealthChecker(check func(ctx context.Context) error) HealthChecker {
	return pingChecker("rabbitmq", HealthStatusDegraded, check)
}

// OutboxHealthChecker degrades when the relay is stopped or lags beyond maxLag.
func OutboxHealthChecker(running func() bool, lag func() time.Duration, maxLag time.Duration) HealthChecker {
	return func(context.Context) HealthCheckResult {
		current := lag()
		details := map[string]any{"lag_seconds": current.Seconds()}
		switch {
		case !running():
			return HealthCheckResult{Status: HealthStatusDegraded, Message: "outbox relay stopped", Details: details}
		case maxLag > 0 && current > maxLag:
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: fmt.Sprintf("outbox lag %s exceeds %s", current.Round(time.Second), maxLag),
				Details: details,
			}
		default:
			return HealthCheckResult{Status: HealthStatusHealthy, Message: "outbox relay running", Details: details}
		}
	}
}
