package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisRateLimitRepository implements a sliding-window rate limiter over a
// sorted set of request timestamps per key.
type RedisRateLimitRepository struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisRateLimitRepository(client *redis.Client, keyPrefix string) *RedisRateLimitRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisRateLimitRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "ct:"
	}
	return &RedisRateLimitRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisRateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	redisKey := r.keyPrefix + "ratelimit:" + key
	windowStart := now.Add(-window).UnixNano()

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: rate limit prune for %s: %w", key, err)
	}
	if countCmd.Val() >= int64(limit) {
		return false, nil
	}

	pipe = r.client.TxPipeline()
	// Member must be unique per request; two requests can share a timestamp.
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: rate limit record for %s: %w", key, err)
	}
	return true, nil
}
