// Package ratelimit guards the push endpoints with a Redis-backed sliding
// window. Without a Redis client the limiter is a no-op, matching the rest
// of the service's degrade-when-unconfigured behavior.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter counts events per key inside a sliding window using a Redis
// sorted set keyed by nanosecond timestamps.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow registers one event for the key and reports whether it still fits
// the window. Remaining and reset feed the response headers.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	reset = now.Add(window)
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	redisKey := l.prefix() + key

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	current := int(countCmd.Val())
	remaining = max - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= max, remaining, reset, nil
}

func (l Limiter) prefix() string {
	if l.Prefix == "" {
		return "pediae:rl:"
	}
	return l.Prefix
}
