// Package cache holds the TTL stores shared by the services.
package cache

import "context"

// Store is a keyed cache with a fixed time-to-live per entry.
// A miss is reported as ok == false with a nil error.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V) error
}
