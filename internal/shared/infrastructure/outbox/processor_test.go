package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mu          sync.Mutex
	published   []publishedMessage
	failForKeys map[string]bool
}

type publishedMessage struct {
	RoutingKey string
	Payload    []byte
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{failForKeys: make(map[string]bool)}
}

func (p *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failForKeys[routingKey] {
		return errors.New("publish failed")
	}
	p.published = append(p.published, publishedMessage{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (p *mockPublisher) Close() error { return nil }

func (p *mockPublisher) PublishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func createTestMessage(routingKey string) *outbox.Message {
	return &outbox.Message{
		EventID:       uuid.New(),
		AggregateType: "Habit",
		AggregateID:   uuid.New(),
		EventType:     routingKey,
		RoutingKey:    routingKey,
		Payload:       json.RawMessage(`{"habit_id":"h"}`),
		CreatedAt:     time.Now(),
	}
}

func TestProcessor_ProcessOnce(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	metrics := observability.NewInMemoryMetrics()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil).WithMetrics(metrics)
	ctx := context.Background()

	msg1 := createTestMessage("habits.activity.logged")
	msg2 := createTestMessage("habits.goal.completed")
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{msg1, msg2}))

	require.NoError(t, processor.ProcessOnce(ctx))

	require.Equal(t, 2, publisher.PublishedCount())
	assert.True(t, msg1.IsPublished())
	assert.True(t, msg2.IsPublished())

	var envelope struct {
		EventID    uuid.UUID       `json:"event_id"`
		RoutingKey string          `json:"routing_key"`
		Payload    json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(publisher.published[0].Payload, &envelope))
	assert.Equal(t, msg1.EventID, envelope.EventID)
	assert.Equal(t, "habits.activity.logged", envelope.RoutingKey)
	assert.JSONEq(t, `{"habit_id":"h"}`, string(envelope.Payload))

	stats := processor.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.NotNil(t, stats.LastProcessedAt)
	assert.NotNil(t, stats.OldestMessageAt)
	assert.GreaterOrEqual(t, stats.LagSeconds, 0.0)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsPublished, observability.T("routing_key", "habits.goal.completed")))
}

func TestProcessor_ProcessOnce_PublishFailure(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	publisher.failForKeys["habits.progress.shared"] = true
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)
	ctx := context.Background()

	ok := createTestMessage("habits.activity.logged")
	bad := createTestMessage("habits.progress.shared")
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{ok, bad}))

	require.NoError(t, processor.ProcessOnce(ctx))

	assert.Equal(t, 1, publisher.PublishedCount())
	assert.True(t, ok.IsPublished())
	assert.False(t, bad.IsPublished())
	assert.Equal(t, 1, bad.RetryCount)
	require.NotNil(t, bad.NextRetryAt)
	assert.True(t, bad.NextRetryAt.After(time.Now()))

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.PublishedCount)
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.NotNil(t, stats.LastErrorAt)

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestProcessor_ProcessOnce_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	publisher.failForKeys["habits.progress.shared"] = true
	config := outbox.DefaultProcessorConfig()
	config.MaxRetries = 1
	processor := outbox.NewProcessor(repo, publisher, config, nil)
	ctx := context.Background()

	msg := createTestMessage("habits.progress.shared")
	require.NoError(t, repo.Save(ctx, msg))

	require.NoError(t, processor.ProcessOnce(ctx))

	assert.Zero(t, publisher.PublishedCount())
	assert.True(t, msg.IsDead())
	assert.Equal(t, uint64(1), processor.GetStats().DeadCount)

	dead, err := repo.GetDead(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, dead, 1)
}

func TestProcessor_Drain(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	config := outbox.DefaultProcessorConfig()
	config.BatchSize = 2
	processor := outbox.NewProcessor(repo, publisher, config, nil)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, repo.Save(ctx, createTestMessage("habits.activity.logged")))
	}

	require.NoError(t, processor.Drain(ctx, 10))
	assert.Equal(t, 5, publisher.PublishedCount())

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestProcessor_Cleanup(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	processor := outbox.NewProcessor(repo, newMockPublisher(), outbox.DefaultProcessorConfig(), nil)
	ctx := context.Background()

	msg := createTestMessage("habits.activity.logged")
	require.NoError(t, repo.Save(ctx, msg))
	require.NoError(t, processor.ProcessOnce(ctx))

	deleted, err := processor.Cleanup(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted, "within retention")

	deleted, err = processor.Cleanup(ctx, time.Now().Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, repo.Messages())
}

func TestProcessor_StartStop(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	config := outbox.ProcessorConfig{
		PollInterval:     10 * time.Millisecond,
		BatchSize:        10,
		MaxRetries:       3,
		RetryBackoffBase: time.Millisecond,
		RetryBackoffMax:  10 * time.Millisecond,
	}
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	require.NoError(t, processor.Start(context.Background()))
	assert.True(t, processor.IsRunning())
	assert.True(t, processor.GetStats().IsRunning)

	require.NoError(t, repo.Save(context.Background(), createTestMessage("habits.habit.created")))

	assert.Eventually(t, func() bool { return publisher.PublishedCount() >= 1 }, time.Second, 5*time.Millisecond)

	processor.Stop()
	processor.Stop()
	assert.False(t, processor.IsRunning())
}

func TestProcessor_DoubleStart(t *testing.T) {
	processor := outbox.NewProcessor(outbox.NewInMemoryRepository(), newMockPublisher(), outbox.DefaultProcessorConfig(), nil)

	require.NoError(t, processor.Start(context.Background()))
	require.NoError(t, processor.Start(context.Background()))
	processor.Stop()
}
