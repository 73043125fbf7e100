package cache

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressKey_String(t *testing.T) {
	habitID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	goalID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	key := ProgressKey{HabitID: habitID, Version: 7, GoalID: goalID, Day: domain.NewDay(2026, time.September, 1)}

	assert.Equal(t,
		"cadence:progress:11111111-1111-1111-1111-111111111111:v7:22222222-2222-2222-2222-222222222222:2026-09-01",
		key.String())
}

func TestMemoryProgressCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryProgressCache(time.Minute)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	habitID := uuid.New()
	key := ProgressKey{HabitID: habitID, Version: 3, GoalID: uuid.New(), Day: domain.NewDay(2026, time.September, 1)}
	progress := domain.Progress{GoalID: key.GoalID, Kind: domain.GoalTargetValue, Value: 0.4, Display: "40 / 100 km"}

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, progress))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, progress, got)

	bumped := key
	bumped.Version++
	_, ok, err = c.Get(ctx, bumped)
	require.NoError(t, err)
	assert.False(t, ok, "a newer habit version misses")

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired")
	assert.Zero(t, c.Len())
}

func TestMemoryProgressCache_InvalidateHabit(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryProgressCache(0)
	day := domain.NewDay(2026, time.September, 1)
	keep := ProgressKey{HabitID: uuid.New(), Version: 1, GoalID: uuid.New(), Day: day}
	drop := ProgressKey{HabitID: uuid.New(), Version: 1, GoalID: uuid.New(), Day: day}

	require.NoError(t, c.Set(ctx, keep, domain.Progress{}))
	require.NoError(t, c.Set(ctx, drop, domain.Progress{}))
	require.NoError(t, c.InvalidateHabit(ctx, drop.HabitID))

	_, ok, _ := c.Get(ctx, keep)
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, drop)
	assert.False(t, ok)
}
