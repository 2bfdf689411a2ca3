package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/cache"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/metrics"
)

// LinkResolver looks tracks up in a link aggregation API
type LinkResolver interface {
	LinksByURL(ctx context.Context, sourceURL string) (*domain.PlatformLinksResponse, error)
	LinksByISRC(ctx context.Context, isrc string) (*domain.PlatformLinksResponse, error)
	Search(ctx context.Context, query string) (string, error)
}

// Resolution tiers, tried in this order
const (
	TierISRC      = "isrc"
	TierSpotifyID = "spotify_id"
	TierSearch    = "search"
	TierFallback  = "fallback"
	TierCache     = "cache"
)

const spotifyTrackURL = "https://open.spotify.com/track/"

// linkStrategy is one way of resolving a track. applies reports whether the
// query carries what the strategy needs.
type linkStrategy struct {
	tier    string
	applies func(q domain.TrackQuery) bool
	resolve func(ctx context.Context, q domain.TrackQuery) (*domain.PlatformLinksResponse, error)
}

// PlatformLinkService resolves where a track can be streamed.
//
// Strategies run in a fixed order and the first success wins. When every
// strategy fails the caller still gets a response made of search URLs, so
// GetPlatformLinks only errors on invalid input.
type PlatformLinkService struct {
	resolver   LinkResolver
	cache      cache.Store[*domain.PlatformLinksResponse]
	strategies []linkStrategy
	logger     *slog.Logger
}

// NewPlatformLinkService creates a new link service
func NewPlatformLinkService(resolver LinkResolver, store cache.Store[*domain.PlatformLinksResponse], logger *slog.Logger) *PlatformLinkService {
	s := &PlatformLinkService{
		resolver: resolver,
		cache:    store,
		logger:   logger,
	}
	s.strategies = []linkStrategy{
		{
			tier:    TierISRC,
			applies: func(q domain.TrackQuery) bool { return q.ISRC != "" },
			resolve: func(ctx context.Context, q domain.TrackQuery) (*domain.PlatformLinksResponse, error) {
				return s.resolver.LinksByISRC(ctx, q.ISRC)
			},
		},
		{
			tier:    TierSpotifyID,
			applies: func(q domain.TrackQuery) bool { return q.SpotifyID != "" },
			resolve: func(ctx context.Context, q domain.TrackQuery) (*domain.PlatformLinksResponse, error) {
				return s.resolver.LinksByURL(ctx, spotifyTrackURL+q.SpotifyID)
			},
		},
		{
			tier:    TierSearch,
			applies: func(domain.TrackQuery) bool { return true },
			resolve: func(ctx context.Context, q domain.TrackQuery) (*domain.PlatformLinksResponse, error) {
				id, err := s.resolver.Search(ctx, q.SearchTerm())
				if err != nil {
					return nil, err
				}
				return s.resolver.LinksByURL(ctx, spotifyTrackURL+id)
			},
		},
	}
	return s
}

// GetPlatformLinks resolves the links of a track.
// Returns domain.ErrInvalidTrackQuery when name or artist is blank.
func (s *PlatformLinkService) GetPlatformLinks(ctx context.Context, q domain.TrackQuery) (*domain.PlatformLinksResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := q.CacheKey()
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("link cache read failed", "key", key, "error", err)
	}
	if ok && err == nil && cached != nil {
		metrics.RecordLinkResolution(TierCache)
		return cached, nil
	}

	for _, strategy := range s.strategies {
		if !strategy.applies(q) {
			continue
		}
		links, err := strategy.resolve(ctx, q)
		if err == nil && (links == nil || len(links.LinksByPlatform) == 0) {
			err = domain.ErrLinksNotFound
		}
		if err != nil {
			s.logger.Warn("link resolution failed",
				"tier", strategy.tier,
				"track", q.TrackName,
				"artist", q.ArtistName,
				"error", err,
			)
			continue
		}

		metrics.RecordLinkResolution(strategy.tier)
		if err := s.cache.Set(ctx, key, links); err != nil {
			s.logger.Warn("link cache write failed", "key", key, "error", err)
		}
		return links, nil
	}

	metrics.RecordLinkResolution(TierFallback)
	return FallbackLinks(q.TrackName, q.ArtistName), nil
}

// AvailablePlatforms lists display-ready platforms for resolved links
func (s *PlatformLinkService) AvailablePlatforms(links *domain.PlatformLinksResponse) []domain.PlatformInfo {
	return domain.AvailablePlatforms(links)
}

// FallbackLinks builds search URLs on the major platforms for a track
func FallbackLinks(trackName, artistName string) *domain.PlatformLinksResponse {
	q := encodeComponent(trackName + " " + artistName)
	searchLink := func(platform, u string) []domain.PlatformLink {
		return []domain.PlatformLink{{
			Platform:        platform,
			URL:             u,
			Country:         "US",
			EntityUniqueIDs: map[string]string{"trackId": "search"},
		}}
	}

	return &domain.PlatformLinksResponse{
		EntityID:    "fallback",
		UserCountry: "US",
		PageURL:     "https://song.link/search/" + q,
		LinksByPlatform: map[string][]domain.PlatformLink{
			domain.PlatformSpotify:      searchLink(domain.PlatformSpotify, "https://open.spotify.com/search/"+q),
			domain.PlatformAppleMusic:   searchLink(domain.PlatformAppleMusic, "https://music.apple.com/search?term="+q),
			domain.PlatformYouTubeMusic: searchLink(domain.PlatformYouTubeMusic, "https://music.youtube.com/search?q="+q),
			domain.PlatformSoundCloud:   searchLink(domain.PlatformSoundCloud, "https://soundcloud.com/search/sounds?q="+q),
		},
		Entities: map[string]domain.EntityInfo{
			"fallback": {Title: trackName, ArtistName: artistName},
		},
	}
}

// encodeComponent percent-encodes s with spaces as %20
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
