package application

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// NewEventMetadata creates command-scoped metadata for domain events.
func NewEventMetadata(userID uuid.UUID) domain.EventMetadata {
	return domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		UserID:        userID,
	}
}

// EventMetadataFromContext reuses the correlation id carried by ctx when it
// parses as a UUID, so events emitted by one CLI invocation share it.
func EventMetadataFromContext(ctx context.Context, userID uuid.UUID) domain.EventMetadata {
	metadata := NewEventMetadata(userID)
	if raw := observability.CorrelationIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			metadata.CorrelationID = id
		}
	}
	return metadata
}

// ApplyEventMetadata sets metadata on all events that support it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
