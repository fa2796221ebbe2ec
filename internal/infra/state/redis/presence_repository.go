package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

// presenceTTL bounds how long a room's presence hash can outlive its last
// write, so crashed processes cannot leak keys forever. Live rooms refresh
// it on every join and cursor update.
const presenceTTL = 24 * time.Hour

// addIfBelowCapacity atomically checks the active-user count against the
// room's capacity and inserts the new entry. Joins racing for the last slot
// serialize on the script, so the room can never exceed maxMembers.
// KEYS[1] = presence hash, ARGV[1] = max, ARGV[2] = field, ARGV[3] = value,
// ARGV[4] = ttl seconds.
var addIfBelowCapacity = redis.NewScript(`
if redis.call("HLEN", KEYS[1]) >= tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[2], ARGV[3])
redis.call("EXPIRE", KEYS[1], ARGV[4])
return 1
`)

// RedisPresenceRepository is the Redis implementation of PresenceRepository.
type RedisPresenceRepository struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisPresenceRepository(client *redis.Client, keyPrefix string) *RedisPresenceRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisPresenceRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "ct:"
	}
	return &RedisPresenceRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisPresenceRepository) roomActiveKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:active", r.keyPrefix, roomID)
}

func (r *RedisPresenceRepository) AddActiveUser(ctx context.Context, roomID string, p domain.Presence, maxMembers int) error {
	key := r.roomActiveKey(roomID)
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis: marshal presence for conn %s: %w", p.ConnectionID, err)
	}
	ok, err := addIfBelowCapacity.Run(ctx, r.client, []string{key},
		maxMembers, p.ConnectionID, value, int(presenceTTL.Seconds())).Int()
	if err != nil {
		return fmt.Errorf("redis: add active user to room %s: %w", roomID, err)
	}
	if ok == 0 {
		return repository.ErrCapacityExceeded
	}
	return nil
}

func (r *RedisPresenceRepository) RemoveActiveUser(ctx context.Context, roomID, connectionID string) error {
	key := r.roomActiveKey(roomID)
	if err := r.client.HDel(ctx, key, connectionID).Err(); err != nil {
		return fmt.Errorf("redis: remove active user %s from room %s: %w", connectionID, roomID, err)
	}
	return nil
}

func (r *RedisPresenceRepository) UpdateCursor(ctx context.Context, roomID, connectionID string, cursor domain.CursorPosition, at time.Time) error {
	key := r.roomActiveKey(roomID)
	raw, err := r.client.HGet(ctx, key, connectionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("redis: get presence %s in room %s: %w", connectionID, roomID, err)
	}
	var p domain.Presence
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("redis: unmarshal presence %s in room %s: %w", connectionID, roomID, err)
	}
	p.Cursor = cursor
	p.LastActivity = at
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis: marshal presence %s: %w", connectionID, err)
	}
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, connectionID, value)
	pipe.Expire(ctx, key, presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: update cursor for %s in room %s: %w", connectionID, roomID, err)
	}
	return nil
}

func (r *RedisPresenceRepository) ListActiveUsers(ctx context.Context, roomID string) ([]domain.Presence, error) {
	key := r.roomActiveKey(roomID)
	entries, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list active users of room %s: %w", roomID, err)
	}
	users := make([]domain.Presence, 0, len(entries))
	for field, raw := range entries {
		var p domain.Presence
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": field}).
				WithError(err).Warn("Dropping unparseable presence entry")
			continue
		}
		users = append(users, p)
	}
	return users, nil
}

func (r *RedisPresenceRepository) SweepStale(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxIdle)
	pattern := r.keyPrefix + "room:*:active"
	removed := 0
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entries, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("redis: sweep read %s: %w", key, err)
		}
		var stale []string
		for field, raw := range entries {
			var p domain.Presence
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				stale = append(stale, field)
				continue
			}
			if p.LastActivity.Before(cutoff) {
				stale = append(stale, field)
			}
		}
		if len(stale) > 0 {
			if err := r.client.HDel(ctx, key, stale...).Err(); err != nil {
				return removed, fmt.Errorf("redis: sweep delete on %s: %w", key, err)
			}
			removed += len(stale)
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis: sweep scan: %w", err)
	}
	return removed, nil
}
