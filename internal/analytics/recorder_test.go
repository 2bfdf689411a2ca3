package analytics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, maxEvents int) *LocalStore {
	t.Helper()
	store, err := OpenLocalStore(filepath.Join(t.TempDir(), "clicks.db"), maxEvents)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type clickServer struct {
	mu     sync.Mutex
	events []domain.ClickEvent
	status int
}

func (s *clickServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var event domain.ClickEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err == nil {
		s.mu.Lock()
		s.events = append(s.events, event)
		s.mu.Unlock()
	}
	w.WriteHeader(s.status)
}

func TestLocalStore_CapsOldestFirst(t *testing.T) {
	// Arrange
	store := openTestStore(t, 3)
	ctx := context.Background()

	// Act
	for _, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
		require.NoError(t, store.Append(ctx, domain.NewClickEvent(id, "Track "+id, "Lazy Perfectionist", "spotify")))
	}
	clicks, err := store.List(ctx, domain.ClickFilter{})

	// Assert
	require.NoError(t, err)
	require.Len(t, clicks, 3)
	assert.Equal(t, "t3", clicks[0].TrackID)
	assert.Equal(t, "t5", clicks[2].TrackID)
}

func TestLocalStore_ListFilterAndLimit(t *testing.T) {
	// Arrange
	store := openTestStore(t, 0)
	ctx := context.Background()
	for i, p := range []string{"spotify", "tidal", "spotify", "spotify"} {
		click := domain.NewClickEvent("t1", "Drift", "Lazy Perfectionist", p)
		click.Timestamp = int64(i + 1)
		require.NoError(t, store.Append(ctx, click))
	}

	// Act
	clicks, err := store.List(ctx, domain.ClickFilter{Platform: "spotify", Limit: 2})

	// Assert
	require.NoError(t, err)
	require.Len(t, clicks, 2)
	assert.Equal(t, int64(3), clicks[0].Timestamp)
	assert.Equal(t, int64(4), clicks[1].Timestamp)
}

func TestRecorder_RecordStoresAndSends(t *testing.T) {
	// Arrange
	server := &clickServer{status: http.StatusOK}
	ts := httptest.NewServer(server)
	defer ts.Close()

	recorder := NewRecorder(openTestStore(t, 0), fetch.New(fetch.Options{Timeout: 5 * time.Second}), RecorderConfig{
		Endpoint:  ts.URL + "/api/analytics/click",
		UserAgent: "clicktrack/1.0",
		Referrer:  "https://lazyperfectionist.com/music",
	}, discardLogger())
	recorder.now = func() time.Time { return time.Date(2025, 1, 17, 10, 0, 0, 0, time.UTC) }

	click := domain.NewClickEvent("t1", "Drift", "Lazy Perfectionist", "spotify").
		WithPlatformLink("Spotify", "https://open.spotify.com/track/t1")

	// Act
	err := recorder.Record(context.Background(), click)

	// Assert
	require.NoError(t, err)

	clicks, err := recorder.Clicks(context.Background())
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, int64(1737108000000), clicks[0].Timestamp)
	assert.Equal(t, "clicktrack/1.0", clicks[0].UserAgent)
	assert.Equal(t, "https://lazyperfectionist.com/music", clicks[0].Referrer)

	server.mu.Lock()
	defer server.mu.Unlock()
	require.Len(t, server.events, 1)
	assert.Equal(t, "t1", server.events[0].TrackID)
	assert.Equal(t, "Spotify", server.events[0].PlatformName)
}

func TestRecorder_ServerFailureIsSwallowed(t *testing.T) {
	// Arrange
	ts := httptest.NewServer(&clickServer{status: http.StatusInternalServerError})
	defer ts.Close()

	recorder := NewRecorder(openTestStore(t, 0), fetch.New(fetch.Options{}), RecorderConfig{
		Endpoint: ts.URL,
	}, discardLogger())

	// Act
	err := recorder.Record(context.Background(), domain.NewClickEvent("t1", "Drift", "Lazy Perfectionist", "tidal"))

	// Assert
	require.NoError(t, err)
	clicks, err := recorder.ClicksByPlatform(context.Background(), "tidal")
	require.NoError(t, err)
	assert.Len(t, clicks, 1)
}

func TestRecorder_Stats(t *testing.T) {
	// Arrange
	recorder := NewRecorder(openTestStore(t, 0), nil, RecorderConfig{}, discardLogger())
	ctx := context.Background()
	day := time.Date(2025, 1, 17, 23, 50, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		recorder.now = func() time.Time { return day.Add(time.Duration(i) * time.Minute) }
		track := "t1"
		if i%3 == 0 {
			track = "t2"
		}
		require.NoError(t, recorder.Record(ctx, domain.NewClickEvent(track, "Drift", "Lazy Perfectionist", "spotify")))
	}

	// Act
	stats, err := recorder.Stats(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalClicks)
	assert.Equal(t, int64(8), stats.ClicksByTrack["t1"])
	assert.Equal(t, int64(4), stats.ClicksByTrack["t2"])
	assert.Equal(t, int64(12), stats.ClicksByPlatform["spotify"])
	assert.Equal(t, int64(12), stats.ClicksByDate["2025-01-17"]+stats.ClicksByDate["2025-01-18"])
	assert.Equal(t, int64(2), stats.ClicksByDate["2025-01-18"])
	require.Len(t, stats.RecentClicks, 10)
	assert.Equal(t, day.Add(11*time.Minute).UnixMilli(), stats.RecentClicks[9].Timestamp)

	byTrack, err := recorder.ClicksByTrack(ctx, "t2")
	require.NoError(t, err)
	assert.Len(t, byTrack, 4)
}

func TestRecorder_Clear(t *testing.T) {
	// Arrange
	recorder := NewRecorder(openTestStore(t, 0), nil, RecorderConfig{}, discardLogger())
	ctx := context.Background()
	require.NoError(t, recorder.Record(ctx, domain.NewClickEvent("t1", "Drift", "Lazy Perfectionist", "spotify")))

	// Act
	err := recorder.Clear(ctx)

	// Assert
	require.NoError(t, err)
	stats, err := recorder.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalClicks)
	assert.Empty(t, stats.RecentClicks)
}
