package outbox

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation for tests and
// single-process runs.
type InMemoryRepository struct {
	mu       sync.Mutex
	messages []*Message
	nextID   int64
	now      func() time.Time
}

// NewInMemoryRepository creates a new in-memory outbox repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1, now: time.Now}
}

func (r *InMemoryRepository) Save(ctx context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.save(msg)
	return nil
}

func (r *InMemoryRepository) save(msg *Message) {
	msg.ID = r.nextID
	r.nextID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now()
	}
	r.messages = append(r.messages, msg)
}

func (r *InMemoryRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		r.save(msg)
	}
	return nil
}

func (r *InMemoryRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var result []*Message
	for _, msg := range r.messages {
		if msg.IsPublished() || msg.IsDead() {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *InMemoryRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.update(id, func(msg *Message) {
		now := r.now()
		msg.PublishedAt = &now
		msg.DeadLetteredAt = nil
	})
}

func (r *InMemoryRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.update(id, func(msg *Message) {
		msg.RetryCount++
		msg.LastError = &errMsg
		msg.NextRetryAt = &nextRetryAt
	})
}

func (r *InMemoryRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.update(id, func(msg *Message) {
		now := r.now()
		msg.RetryCount++
		msg.LastError = &reason
		msg.DeadLetteredAt = &now
		msg.DeadLetterReason = &reason
	})
}

func (r *InMemoryRepository) GetDead(ctx context.Context, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*Message
	for _, msg := range slices.Backward(r.messages) {
		if !msg.IsDead() {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *InMemoryRepository) Requeue(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ID == id && msg.IsDead() {
			msg.DeadLetteredAt = nil
			msg.DeadLetterReason = nil
			msg.RetryCount = 0
			msg.NextRetryAt = nil
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrMessageNotFound, id)
}

func (r *InMemoryRepository) CountPending(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, msg := range r.messages {
		if !msg.IsPublished() && !msg.IsDead() {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	var deleted int64
	for _, msg := range r.messages {
		if msg.PublishedAt != nil && msg.PublishedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	r.messages = kept
	return deleted, nil
}

// Messages returns a snapshot of every stored message.
func (r *InMemoryRepository) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

func (r *InMemoryRepository) update(id int64, fn func(*Message)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ID == id {
			fn(msg)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrMessageNotFound, id)
}
