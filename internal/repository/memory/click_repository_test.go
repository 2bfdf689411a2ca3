package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 1, 17, 23, 30, 0, 0, time.UTC)

func click(track, platform string, ts time.Time) *domain.ClickEvent {
	c := domain.NewClickEvent(track, "Track "+track, "Lazy Perfectionist", platform)
	c.Timestamp = ts.UnixMilli()
	return c
}

func TestClickRepository_ListNewestFirst(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := NewClickRepository(10)
	require.NoError(t, repo.Create(ctx, click("t1", "spotify", day0)))
	require.NoError(t, repo.Create(ctx, click("t2", "spotify", day0.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, click("t1", "apple_music", day0.Add(2*time.Hour))))

	// Act
	all, err := repo.List(ctx, domain.ClickFilter{})
	require.NoError(t, err)
	spotify, err := repo.List(ctx, domain.ClickFilter{Platform: "spotify", Limit: 1})
	require.NoError(t, err)
	count, err := repo.Count(ctx, domain.ClickFilter{TrackID: "t1"})
	require.NoError(t, err)

	// Assert
	require.Len(t, all, 3)
	assert.Equal(t, "apple_music", all[0].Platform)
	assert.Equal(t, "t1", all[2].TrackID)

	require.Len(t, spotify, 1)
	assert.Equal(t, "t2", spotify[0].TrackID)

	assert.Equal(t, int64(2), count)
}

func TestClickRepository_DropsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	repo := NewClickRepository(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, click(fmt.Sprintf("t%d", i), "spotify", day0.Add(time.Duration(i)*time.Minute))))
	}

	events, err := repo.List(ctx, domain.ClickFilter{})
	require.NoError(t, err)
	count, err := repo.Count(ctx, domain.ClickFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), count)
	require.Len(t, events, 3)
	assert.Equal(t, "t4", events[0].TrackID)
	assert.Equal(t, "t2", events[2].TrackID)
}

func TestClickRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := NewClickRepository(10)
	require.NoError(t, repo.Create(ctx, click("t1", "spotify", day0)))
	require.NoError(t, repo.Create(ctx, click("t1", "spotify", day0.Add(time.Hour)))) // next UTC day
	require.NoError(t, repo.Create(ctx, click("t2", "bandcamp", day0.Add(2*time.Hour))))

	stats, err := repo.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalClicks)
	assert.Equal(t, map[string]int64{"t1": 2, "t2": 1}, stats.ClicksByTrack)
	assert.Equal(t, map[string]int64{"spotify": 2, "bandcamp": 1}, stats.ClicksByPlatform)
	assert.Equal(t, map[string]int64{"2025-01-17": 1, "2025-01-18": 2}, stats.ClicksByDate)
}

func TestClickRepository_StoredEventsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewClickRepository(10)
	c := click("t1", "spotify", day0)
	require.NoError(t, repo.Create(ctx, c))

	c.TrackID = "mutated"
	events, _ := repo.List(ctx, domain.ClickFilter{})
	events[0].Platform = "mutated"
	again, _ := repo.List(ctx, domain.ClickFilter{})

	assert.Equal(t, "t1", again[0].TrackID)
	assert.Equal(t, "spotify", again[0].Platform)
}

func TestClickRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewClickRepository(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Create(ctx, click(fmt.Sprintf("t%d", i%5), "spotify", day0))
			_, _ = repo.Stats(ctx)
		}(i)
	}
	wg.Wait()

	count, err := repo.Count(ctx, domain.ClickFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}
