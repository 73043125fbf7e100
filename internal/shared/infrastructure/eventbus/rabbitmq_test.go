package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubConsumer struct {
	keys []string
	err  error
	got  []*ConsumedEvent
}

func (s *stubConsumer) EventTypes() []string { return s.keys }

func (s *stubConsumer) Handle(_ context.Context, event *ConsumedEvent) error {
	s.got = append(s.got, event)
	return s.err
}

func TestRabbitMQConsumer_Settle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	envelope := []byte(`{"event_id":"6f1f4c1e-6d1c-4a8e-9a55-8f0a3b0c2d11","routing_key":"habits.goal.completed","payload":{}}`)

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		redelivered bool
		want        settlement
	}{
		{name: "handled", body: envelope, want: settleAck},
		{name: "first failure requeues", body: envelope, handlerErr: errors.New("down"), want: settleRequeue},
		{name: "second failure dead-letters", body: envelope, handlerErr: errors.New("down"), redelivered: true, want: settleDeadLetter},
		{name: "garbage dead-letters", body: []byte("not json"), want: settleDeadLetter},
		{name: "unrouted key acks", body: []byte(`{"routing_key":"habits.unknown"}`), want: settleAck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubConsumer{keys: []string{"habits.goal.completed"}, err: tt.handlerErr}
			registry := NewConsumerRegistry(logger)
			registry.Register(stub)
			c := &RabbitMQConsumer{registry: registry, logger: logger}

			got := c.settle(context.Background(), "habits.goal.completed", tt.body, tt.redelivered)

			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestRabbitMQConsumer_SettleFillsRoutingKey(t *testing.T) {
	stub := &stubConsumer{keys: []string{"habits.activity.logged"}}
	registry := NewConsumerRegistry(nil)
	registry.Register(stub)
	c := &RabbitMQConsumer{registry: registry, logger: slog.Default()}

	got := c.settle(context.Background(), "habits.activity.logged", []byte(`{"payload":{}}`), false)

	assert.Equal(t, settleAck, got)
	if assert.Len(t, stub.got, 1) {
		assert.Equal(t, "habits.activity.logged", stub.got[0].RoutingKey)
	}
}

func TestAMQPSession_NilIsClosed(t *testing.T) {
	var s *amqpSession
	assert.False(t, s.open())
	assert.NoError(t, s.close())
}
