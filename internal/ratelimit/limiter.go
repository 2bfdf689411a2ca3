// Package ratelimit throttles write endpoints with a Redis fixed-window counter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript counts one hit in the current window. It returns
// {allowed, remaining, seconds until the window resets}.
var windowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	if current >= limit then
		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			redis.call('EXPIRE', key, window)
			ttl = window
		end
		return {0, 0, ttl}
	end

	current = redis.call('INCR', key)
	if current == 1 then
		redis.call('EXPIRE', key, window)
	end
	local ttl = redis.call('TTL', key)
	return {1, limit - current, ttl}
`)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter allows at most limit hits per key within each window.
// Counters live in Redis, so every server instance shares them.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// New creates a limiter whose keys are stored as "ratelimit:{prefix}:{key}"
func New(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	if window < time.Second {
		window = time.Second
	}
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *Limiter) key(k string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.prefix, k)
}

// Allow records a hit for key and reports whether it fits in the window
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := windowScript.Run(ctx, l.client, []string{l.key(key)}, l.limit, int(l.window.Seconds())).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, errors.New("rate limit check failed: unexpected script result")
	}

	return Decision{
		Allowed:   res[0] == 1,
		Limit:     l.limit,
		Remaining: int(res[1]),
		ResetAt:   l.now().Add(time.Duration(res[2]) * time.Second),
	}, nil
}

// Reset clears the counter of key
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

// Limit returns the number of hits allowed per window
func (l *Limiter) Limit() int {
	return l.limit
}
