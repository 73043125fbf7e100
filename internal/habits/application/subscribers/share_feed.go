package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// DefaultFeedSize is how many shared records a feed keeps.
const DefaultFeedSize = 100

// SharedProgress is one record received from a peer.
type SharedProgress struct {
	EventID uuid.UUID          `json:"event_id"`
	UserID  uuid.UUID          `json:"user_id"`
	HabitID uuid.UUID          `json:"habit_id"`
	GoalID  uuid.UUID          `json:"goal_id"`
	Record  domain.ShareRecord `json:"record"`
}

type progressSharedPayload struct {
	HabitID uuid.UUID       `json:"habit_id"`
	UserID  uuid.UUID       `json:"user_id"`
	GoalID  uuid.UUID       `json:"goal_id"`
	Record  json.RawMessage `json:"record"`
}

// ShareFeed keeps the most recent shared progress records, newest first,
// for read-only rendering. Redelivered events are ignored.
type ShareFeed struct {
	mu      sync.RWMutex
	records []SharedProgress
	seen    map[uuid.UUID]struct{}
	size    int
	logger  *slog.Logger
}

// NewShareFeed creates a feed holding at most size records.
// A non-positive size uses DefaultFeedSize.
func NewShareFeed(size int, logger *slog.Logger) *ShareFeed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ShareFeed{
		records: make([]SharedProgress, 0, size),
		seen:    make(map[uuid.UUID]struct{}),
		size:    size,
		logger:  logger,
	}
}

// EventTypes returns the event types this subscriber handles.
func (f *ShareFeed) EventTypes() []string {
	return []string{domain.RoutingProgressShared}
}

// Handle validates the shared record and prepends it to the feed.
func (f *ShareFeed) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload progressSharedPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	record, err := domain.DecodeShareRecord(payload.Record)
	if err != nil {
		return fmt.Errorf("event %s: %w", event.EventID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen[event.EventID]; dup {
		return nil
	}
	if len(f.records) == f.size {
		evicted := f.records[len(f.records)-1]
		delete(f.seen, evicted.EventID)
		f.records = f.records[:len(f.records)-1]
	}
	f.records = append([]SharedProgress{{
		EventID: event.EventID,
		UserID:  payload.UserID,
		HabitID: payload.HabitID,
		GoalID:  payload.GoalID,
		Record:  record,
	}}, f.records...)
	f.seen[event.EventID] = struct{}{}

	f.logger.InfoContext(ctx, "progress shared",
		"habit", record.HabitName,
		"goal", record.GoalName,
		"progress", record.Progress,
		"completed", record.IsCompleted,
	)
	return nil
}

// Latest returns up to n records, newest first. A non-positive n returns all.
func (f *ShareFeed) Latest(n int) []SharedProgress {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || n > len(f.records) {
		n = len(f.records)
	}
	out := make([]SharedProgress, n)
	copy(out, f.records[:n])
	return out
}
