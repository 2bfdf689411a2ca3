package cache

import (
	"context"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/metrics"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is an in-process LRU whose entries expire after ttl.
// It is safe for concurrent use.
type MemoryStore[V any] struct {
	name string
	lru  *expirable.LRU[string, V]
}

// NewMemoryStore creates a store holding at most size entries (0 = unbounded)
func NewMemoryStore[V any](name string, size int, ttl time.Duration) *MemoryStore[V] {
	return &MemoryStore[V]{
		name: name,
		lru:  expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns the value for key if present and not expired
func (s *MemoryStore[V]) Get(_ context.Context, key string) (V, bool, error) {
	value, ok := s.lru.Get(key)
	if !ok {
		metrics.RecordCacheMiss(s.name)
		return value, false, nil
	}
	metrics.RecordCacheHit(s.name)
	return value, true, nil
}

// Set stores value under key, replacing any previous entry
func (s *MemoryStore[V]) Set(_ context.Context, key string, value V) error {
	s.lru.Add(key, value)
	return nil
}

// Len returns the number of live entries
func (s *MemoryStore[V]) Len() int {
	return s.lru.Len()
}

// Purge drops every entry
func (s *MemoryStore[V]) Purge() {
	s.lru.Purge()
}
