package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	calls int
	err   error
}

func (p *flakyPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.calls++
	return p.err
}

func (p *flakyPublisher) Close() error { return nil }

func TestBreakerPublisher_TripsAfterConsecutiveFailures(t *testing.T) {
	next := &flakyPublisher{err: errors.New("connection refused")}
	publisher := eventbus.NewBreakerPublisher(next, eventbus.BreakerConfig{
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 3,
	}, nil)
	ctx := context.Background()

	for range 3 {
		err := publisher.Publish(ctx, "habits.activity.logged", []byte(`{}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, eventbus.ErrPublisherUnavailable)
	}
	assert.Equal(t, "open", publisher.State())

	err := publisher.Publish(ctx, "habits.activity.logged", []byte(`{}`))
	assert.ErrorIs(t, err, eventbus.ErrPublisherUnavailable)
	assert.Equal(t, 3, next.calls, "open breaker does not reach the broker")
}

func TestBreakerPublisher_PassesThroughSuccess(t *testing.T) {
	next := &flakyPublisher{}
	publisher := eventbus.NewBreakerPublisher(next, eventbus.DefaultBreakerConfig(), nil)

	require.NoError(t, publisher.Publish(context.Background(), "habits.goal.completed", []byte(`{}`)))
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "closed", publisher.State())
	assert.NoError(t, publisher.Close())
}
