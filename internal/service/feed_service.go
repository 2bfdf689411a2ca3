package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/cache"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/feed"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/metrics"
)

// Getter fetches a URL and rejects non-2xx responses
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// FeedSnapshot is what the feed cache holds: every parsed post, newest first
type FeedSnapshot struct {
	Posts     []domain.FeedPost `json:"posts"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

const feedCacheKey = "posts"

var feedHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (compatible; RSS-Reader)",
	"Accept":     "application/rss+xml, application/xml, text/xml",
}

// FeedConfig configures the feed service
type FeedConfig struct {
	URL      string
	Author   string
	MaxPosts int
}

// FeedService serves the artist's Medium posts through a TTL cache.
// Upstream problems never surface as errors: the caller gets a fallback post instead.
type FeedService struct {
	getter Getter
	cache  cache.Store[FeedSnapshot]
	cfg    FeedConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewFeedService creates a new feed service
func NewFeedService(getter Getter, store cache.Store[FeedSnapshot], cfg FeedConfig, logger *slog.Logger) *FeedService {
	if cfg.MaxPosts <= 0 || cfg.MaxPosts > feed.MaxItems {
		cfg.MaxPosts = feed.MaxItems
	}
	return &FeedService{
		getter: getter,
		cache:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ClampLimit maps a requested page size onto [1, MaxPosts]. Zero or less means MaxPosts.
func (s *FeedService) ClampLimit(limit int) int {
	if limit <= 0 || limit > s.cfg.MaxPosts {
		return s.cfg.MaxPosts
	}
	return limit
}

// GetPosts returns up to limit posts ordered by mode
func (s *FeedService) GetPosts(ctx context.Context, limit int, mode domain.SortMode) *domain.FeedResult {
	limit = s.ClampLimit(limit)

	snap, ok, err := s.cache.Get(ctx, feedCacheKey)
	if err != nil {
		s.logger.Warn("feed cache read failed", "error", err)
	}
	if ok && err == nil {
		s.logger.Debug("returning cached feed", "posts", len(snap.Posts))
		return s.result(snap.Posts, limit, mode, snap.FetchedAt, domain.SourceCache)
	}

	posts, err := s.fetch(ctx)
	if err != nil || len(posts) == 0 {
		if err == nil {
			err = fmt.Errorf("feed contained no usable items")
		}
		s.logger.Warn("could not read feed, using fallback", "url", s.cfg.URL, "error", err)
		metrics.RecordFeedFetch("fallback")
		now := s.now()
		return s.result([]domain.FeedPost{feed.Fallback(s.cfg.Author, now)}, limit, mode, now, domain.SourceFallback)
	}
	metrics.RecordFeedFetch("success")

	feed.Sort(posts, domain.SortLatest)
	fetchedAt := s.now()
	if err := s.cache.Set(ctx, feedCacheKey, FeedSnapshot{Posts: posts, FetchedAt: fetchedAt}); err != nil {
		s.logger.Warn("feed cache write failed", "error", err)
	}

	source := domain.SourceFeed
	if len(posts) <= 1 {
		source = domain.SourceFallback
	}
	return s.result(posts, limit, mode, fetchedAt, source)
}

func (s *FeedService) fetch(ctx context.Context) ([]domain.FeedPost, error) {
	resp, err := s.getter.Get(ctx, s.cfg.URL, feedHeaders)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return feed.Parse(resp.Body, feed.Options{Author: s.cfg.Author, Now: s.now})
}

// result sorts a copy of posts so cached slices are never reordered in place
func (s *FeedService) result(posts []domain.FeedPost, limit int, mode domain.SortMode, updated time.Time, source string) *domain.FeedResult {
	ranked := make([]domain.FeedPost, len(posts))
	copy(ranked, posts)
	feed.Sort(ranked, mode)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return &domain.FeedResult{
		Posts:       ranked,
		LastUpdated: updated,
		Source:      source,
		TotalPosts:  len(ranked),
		HasMore:     len(ranked) >= limit,
	}
}
