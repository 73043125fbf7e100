package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrPublisherUnavailable is returned while the circuit breaker is open.
var ErrPublisherUnavailable = errors.New("publisher unavailable")

// BreakerConfig configures the circuit breaker around a publisher.
type BreakerConfig struct {
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration

	// FailureThreshold trips the breaker after this many consecutive failures.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerPublisher stops hammering a failing broker. While the breaker is
// open every publish fails fast and the outbox schedules a retry.
type BreakerPublisher struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerPublisher wraps next with a circuit breaker.
func NewBreakerPublisher(next Publisher, cfg BreakerConfig, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = DefaultBreakerConfig().FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerPublisher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Publish forwards to the wrapped publisher unless the breaker is open.
func (p *BreakerPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.next.Publish(ctx, routingKey, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrPublisherUnavailable, err)
	}
	return err
}

// State reports the breaker state, e.g. for health checks.
func (p *BreakerPublisher) State() string {
	return p.breaker.State().String()
}

// Close closes the wrapped publisher.
func (p *BreakerPublisher) Close() error {
	return p.next.Close()
}
