package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps JSON-encoded values in Redis under "prefix:key".
// Entries expire through Redis TTLs, so every server instance shares the same cache.
type RedisStore[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore[V any](client *redis.Client, prefix string, ttl time.Duration) *RedisStore[V] {
	return &RedisStore[V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore[V]) key(k string) string {
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

// Get retrieves a value. redis.Nil is a miss, not an error.
func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	start := time.Now()
	defer func() {
		metrics.CacheOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	}()

	var value V
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss(s.prefix)
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	metrics.RecordCacheHit(s.prefix)
	return value, true, nil
}

// Set stores a value with the store TTL
func (s *RedisStore[V]) Set(ctx context.Context, key string, value V) error {
	start := time.Now()
	defer func() {
		metrics.CacheOperationDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
	}()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Clear removes every key of this store
func (s *RedisStore[V]) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()

	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan error: %w", err)
	}

	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis delete error: %w", err)
		}
	}
	return nil
}

// InitRedis creates a Redis client and checks the connection
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
