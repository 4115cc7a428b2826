package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "roomledger:"

// Redis is a Cache backed by a Redis server, for deployments with more than
// one server instance.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// Get returns the cached value and whether it was present.
func (r *Redis) Get(ctx context.Context, key Key) ([]byte, bool) {
	value, err := r.client.Get(ctx, keyPrefix+key.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		// A flaky cache read is a miss, not a failure.
		slog.Warn("Cache read failed", "key", key.String(), "error", err)
		return nil, false
	}
	return value, true
}

// Set stores a value and registers its key in the room's key set so
// InvalidateRoom can find it.
func (r *Redis) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	fullKey := keyPrefix + key.String()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, fullKey, value, ttl)
	pipe.SAdd(ctx, r.roomSetKey(key.RoomID), fullKey)
	pipe.Expire(ctx, r.roomSetKey(key.RoomID), ttl+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("Cache write failed", "key", key.String(), "error", err)
	}
}

// InvalidateRoom drops every entry scoped to the room.
func (r *Redis) InvalidateRoom(ctx context.Context, roomID string) {
	setKey := r.roomSetKey(roomID)
	keys, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		slog.Warn("Cache invalidation scan failed", "room_id", roomID, "error", err)
		return
	}
	keys = append(keys, setKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Cache invalidation failed", "room_id", roomID, "error", err)
	}
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) roomSetKey(roomID string) string {
	return keyPrefix + "roomkeys:" + roomID
}
