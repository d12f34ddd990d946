package contextstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend persists contexts in Redis under KeyPrefix + user id, with
// the TTL refreshed on every write.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend creates a Redis backend from a redis:// URL.
func NewRedisBackend(url string, ttl time.Duration) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisBackend{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func (b *RedisBackend) key(userID string) string {
	return KeyPrefix + userID
}

// Get returns the stored turn sequence, or an empty sequence on a miss.
func (b *RedisBackend) Get(ctx context.Context, userID string) ([]Turn, error) {
	data, err := b.client.Get(ctx, b.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return turns, nil
}

// Set stores the turn sequence as a JSON array and refreshes the TTL.
func (b *RedisBackend) Set(ctx context.Context, userID string, turns []Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	if err := b.client.SetEx(ctx, b.key(userID), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis setex: %w", err)
	}
	return nil
}

// Delete removes the stored context. Absent keys are not an error.
func (b *RedisBackend) Delete(ctx context.Context, userID string) error {
	if err := b.client.Del(ctx, b.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping probes the Redis connection.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
