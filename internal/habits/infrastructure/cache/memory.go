package cache

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
)

type memoryEntry struct {
	progress  domain.Progress
	expiresAt time.Time
}

// MemoryProgressCache is a process-local ProgressCache.
type MemoryProgressCache struct {
	mu      sync.Mutex
	entries map[ProgressKey]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryProgressCache creates an in-memory cache. A ttl of 0 uses DefaultTTL.
func NewMemoryProgressCache(ttl time.Duration) *MemoryProgressCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryProgressCache{
		entries: make(map[ProgressKey]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryProgressCache) Get(ctx context.Context, key ProgressKey) (domain.Progress, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.Progress{}, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return domain.Progress{}, false, nil
	}
	return entry.progress, true, nil
}

func (c *MemoryProgressCache) Set(ctx context.Context, key ProgressKey, progress domain.Progress) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{progress: progress, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryProgressCache) InvalidateHabit(ctx context.Context, habitID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.HabitID == habitID {
			delete(c.entries, key)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryProgressCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
