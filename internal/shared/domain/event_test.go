package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	before := time.Now().UTC()

	event := domain.NewBaseEvent(aggregateID, "Habit", "habits.activity.logged")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "Habit", event.AggregateType())
	assert.Equal(t, "habits.activity.logged", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
}

func TestEventMetadata_JSON(t *testing.T) {
	meta := domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		UserID:        uuid.New(),
	}
	event := domain.NewBaseEvent(uuid.New(), "Habit", "habits.goal.completed")
	event.SetMetadata(meta)
	assert.Equal(t, meta, event.Metadata())

	raw, err := json.Marshal(event.Metadata())
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, meta.CorrelationID.String(), decoded["correlation_id"])
	assert.Equal(t, meta.CausationID.String(), decoded["causation_id"])
	assert.Equal(t, meta.UserID.String(), decoded["user_id"])
}
