package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisProgressCache is a ProgressCache shared by every process.
type RedisProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProgressCache creates a Redis-backed cache. A ttl of 0 uses DefaultTTL.
func NewRedisProgressCache(client *redis.Client, ttl time.Duration) *RedisProgressCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisProgressCache{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisProgressCache) Get(ctx context.Context, key ProgressKey) (domain.Progress, bool, error) {
	data, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Progress{}, false, nil
	}
	if err != nil {
		return domain.Progress{}, false, fmt.Errorf("get progress: %w", err)
	}

	var progress domain.Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return domain.Progress{}, false, fmt.Errorf("decode progress: %w", err)
	}
	return progress, true, nil
}

// Set stores the projection and records its key in the habit's index set.
func (c *RedisProgressCache) Set(ctx context.Context, key ProgressKey, progress domain.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	index := habitIndexKey(key.HabitID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key.String(), data, c.ttl)
		pipe.SAdd(ctx, index, key.String())
		pipe.Expire(ctx, index, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store progress: %w", err)
	}
	return nil
}

func (c *RedisProgressCache) InvalidateHabit(ctx context.Context, habitID uuid.UUID) error {
	index := habitIndexKey(habitID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list cached progress: %w", err)
	}
	keys = append(keys, index)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate progress: %w", err)
	}
	return nil
}

// Ping checks the Redis connection, for health checks.
func (c *RedisProgressCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
