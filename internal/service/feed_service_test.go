package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/cache"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testFeedURL = "https://medium.com/feed/@lazyperfectist"

// rssWithItems builds a feed of n posts, item i published i days before 2024-06-01
func rssWithItems(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<item><title>Post %d</title><link>https://medium.com/p/%d</link><pubDate>%s</pubDate></item>`,
			i, i, base.AddDate(0, 0, -i).Format(time.RFC1123Z))
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func newFeedService(getter Getter, ttl time.Duration) *FeedService {
	store := cache.NewMemoryStore[FeedSnapshot]("feed", 1, ttl)
	return NewFeedService(getter, store, FeedConfig{URL: testFeedURL, Author: "Lazy Perfectionist"}, discardLogger())
}

func TestGetPosts_FetchesThenServesFromCache(t *testing.T) {
	// Arrange
	ctx := context.Background()
	getter := new(MockGetter)
	getter.On("Get", mock.Anything, testFeedURL, feedHeaders).Return(rssWithItems(3), nil).Once()
	svc := newFeedService(getter, 15*time.Minute)

	// Act
	first := svc.GetPosts(ctx, 15, domain.SortLatest)
	second := svc.GetPosts(ctx, 15, domain.SortLatest)

	// Assert
	assert.Equal(t, domain.SourceFeed, first.Source)
	assert.Len(t, first.Posts, 3)
	assert.Equal(t, domain.SourceCache, second.Source)
	assert.Equal(t, first.Posts, second.Posts)
	assert.Equal(t, first.LastUpdated, second.LastUpdated)
	getter.AssertNumberOfCalls(t, "Get", 1)
}

func TestGetPosts_LimitAndHasMore(t *testing.T) {
	tests := []struct {
		name        string
		items       int
		limit       int
		wantPosts   int
		wantHasMore bool
	}{
		{"default limit", 20, 0, 15, true},
		{"limit above cap", 20, 50, 15, true},
		{"small limit", 5, 2, 2, true},
		{"fewer posts than limit", 3, 10, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := new(MockGetter)
			getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(rssWithItems(tt.items), nil)
			svc := newFeedService(getter, time.Minute)

			result := svc.GetPosts(context.Background(), tt.limit, domain.SortLatest)

			assert.Len(t, result.Posts, tt.wantPosts)
			assert.Equal(t, tt.wantPosts, result.TotalPosts)
			assert.Equal(t, tt.wantHasMore, result.HasMore)
		})
	}
}

func TestGetPosts_CacheHitHonoursSortAndLimit(t *testing.T) {
	ctx := context.Background()
	getter := new(MockGetter)
	getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(rssWithItems(5), nil).Once()
	svc := newFeedService(getter, time.Minute)
	svc.GetPosts(ctx, 15, domain.SortLatest)

	oldest := svc.GetPosts(ctx, 2, domain.SortOldest)
	latest := svc.GetPosts(ctx, 15, domain.SortLatest)

	require.Len(t, oldest.Posts, 2)
	assert.Equal(t, domain.SourceCache, oldest.Source)
	assert.Equal(t, "Post 4", oldest.Posts[0].Title)
	assert.Equal(t, "Post 3", oldest.Posts[1].Title)

	require.Len(t, latest.Posts, 5)
	assert.Equal(t, "Post 0", latest.Posts[0].Title, "cached list is not reordered by earlier calls")
}

func TestGetPosts_PopularOrdering(t *testing.T) {
	getter := new(MockGetter)
	getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(rssWithItems(8), nil)
	svc := newFeedService(getter, time.Minute)

	result := svc.GetPosts(context.Background(), 15, domain.SortPopular)

	for i := 1; i < len(result.Posts); i++ {
		assert.GreaterOrEqual(t, result.Posts[i-1].Claps, result.Posts[i].Claps)
	}
}

func TestGetPosts_UpstreamFailureFallsBackWithoutCaching(t *testing.T) {
	ctx := context.Background()
	getter := new(MockGetter)
	getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(nil, errors.New("connection refused")).Twice()
	svc := newFeedService(getter, time.Minute)

	first := svc.GetPosts(ctx, 15, domain.SortLatest)
	second := svc.GetPosts(ctx, 15, domain.SortLatest)

	require.Len(t, first.Posts, 1)
	assert.Equal(t, domain.SourceFallback, first.Source)
	assert.Equal(t, "Read writing from Lazy Perfectionist on Medium", first.Posts[0].Title)
	assert.False(t, first.HasMore)
	assert.Equal(t, domain.SourceFallback, second.Source, "fallback is never cached")
	getter.AssertNumberOfCalls(t, "Get", 2)
}

func TestGetPosts_UnparsableOrEmptyFeedFallsBack(t *testing.T) {
	for name, body := range map[string]string{
		"garbage":  "<html>not a feed</html>",
		"no items": rssWithItems(0),
	} {
		t.Run(name, func(t *testing.T) {
			getter := new(MockGetter)
			getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(body, nil)
			svc := newFeedService(getter, time.Minute)

			result := svc.GetPosts(context.Background(), 15, domain.SortLatest)

			require.Len(t, result.Posts, 1)
			assert.Equal(t, "fallback-1", result.Posts[0].ID)
		})
	}
}

func TestGetPosts_SinglePostReportsFallbackSource(t *testing.T) {
	getter := new(MockGetter)
	getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(rssWithItems(1), nil)
	svc := newFeedService(getter, time.Minute)

	result := svc.GetPosts(context.Background(), 15, domain.SortLatest)

	require.Len(t, result.Posts, 1)
	assert.Equal(t, "Post 0", result.Posts[0].Title)
	assert.Equal(t, domain.SourceFallback, result.Source)
}

func TestGetPosts_RefetchesAfterTTL(t *testing.T) {
	ctx := context.Background()
	getter := new(MockGetter)
	getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(rssWithItems(3), nil)
	svc := newFeedService(getter, 50*time.Millisecond)

	svc.GetPosts(ctx, 15, domain.SortLatest)
	time.Sleep(120 * time.Millisecond)
	result := svc.GetPosts(ctx, 15, domain.SortLatest)

	assert.Equal(t, domain.SourceFeed, result.Source)
	getter.AssertNumberOfCalls(t, "Get", 2)
}

func TestGetPosts_CacheErrorsAreMisses(t *testing.T) {
	getter := new(MockGetter)
	getter.On("Get", mock.Anything, testFeedURL, mock.Anything).Return(rssWithItems(3), nil)
	svc := NewFeedService(getter, failingStore[FeedSnapshot]{}, FeedConfig{URL: testFeedURL, Author: "Lazy Perfectionist"}, discardLogger())

	result := svc.GetPosts(context.Background(), 15, domain.SortLatest)

	assert.Equal(t, domain.SourceFeed, result.Source)
	assert.Len(t, result.Posts, 3)
}
