package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "neosearch:imports:"

// RedisCounter shares the fixed window across instances via INCR + EXPIRE.
type RedisCounter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisCounter(client *redis.Client, limit int, window time.Duration) *RedisCounter {
	return &RedisCounter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (c *RedisCounter) Allow(ctx context.Context, ownerID string) (bool, error) {
	key := redisKeyPrefix + ownerID

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate counter: %w", err)
	}

	// First hit opens the window; the key expiring is the reset boundary.
	if count == 1 {
		if err := c.client.Expire(ctx, key, c.window).Err(); err != nil {
			return false, fmt.Errorf("set rate window: %w", err)
		}
	}

	return count <= int64(c.limit), nil
}
