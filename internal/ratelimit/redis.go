package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window rate limiter backed by Redis, safe to share
// across instances. Keys live under "ratelimit:<key>".
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedis allows up to limit requests per key per window.
func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: limit, window: window}
}

func (r *Redis) Allow(key string) (allowed bool, retryAfterSec int) {
	ctx := context.Background()
	redisKey := "ratelimit:" + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Fail open: a broken limiter should not take chat down with it.
		return true, 0
	}
	if count == 1 {
		r.client.Expire(ctx, redisKey, r.window)
	}
	if count > int64(r.limit) {
		ttl, err := r.client.TTL(ctx, redisKey).Result()
		if err == nil && ttl > 0 {
			retryAfterSec = int(ttl.Seconds())
			if retryAfterSec < 1 {
				retryAfterSec = 1
			}
		}
		return false, retryAfterSec
	}
	return true, 0
}
