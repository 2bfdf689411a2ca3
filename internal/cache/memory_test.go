package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewMemoryStore[[]string]("test", 10, time.Minute)

	// Act
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []string{"a", "b"}))
	got, ok, err := store.Get(ctx, "k")

	// Assert
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMemoryStore_Expires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[int]("test", 10, 50*time.Millisecond)
	require.NoError(t, store.Set(ctx, "k", 42))

	got, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	time.Sleep(120 * time.Millisecond)

	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok, "entry should be gone after its ttl")
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[int]("test", 2, time.Minute)

	require.NoError(t, store.Set(ctx, "a", 1))
	require.NoError(t, store.Set(ctx, "b", 2))
	require.NoError(t, store.Set(ctx, "c", 3))

	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 2, store.Len())

	store.Purge()
	assert.Equal(t, 0, store.Len())
}
