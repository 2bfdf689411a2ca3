package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/cache"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/upstream/spotify"
)

// CatalogSource reads the artist's releases from a streaming catalog
type CatalogSource interface {
	Artist(ctx context.Context) (*domain.Artist, error)
	ArtistAlbums(ctx context.Context) ([]spotify.Album, error)
	AlbumTracks(ctx context.Context, album spotify.Album) ([]domain.Track, error)
}

const catalogCacheKey = "tracks"

// CatalogService exposes the artist profile and a cached, ordered track list
type CatalogService struct {
	source CatalogSource
	cache  cache.Store[[]domain.Track]
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(source CatalogSource, store cache.Store[[]domain.Track], logger *slog.Logger) *CatalogService {
	return &CatalogService{
		source: source,
		cache:  store,
		logger: logger,
	}
}

// Artist returns the artist profile or domain.ErrArtistNotFound
func (s *CatalogService) Artist(ctx context.Context) (*domain.Artist, error) {
	artist, err := s.source.Artist(ctx)
	if err != nil || artist == nil {
		s.logger.Warn("failed to fetch artist", "error", err)
		return nil, domain.ErrArtistNotFound
	}
	return artist, nil
}

// AllTracks returns every track across albums, singles and compilations,
// newest release first and in album order within a release. An unreachable
// catalog yields an empty list, which is not cached.
func (s *CatalogService) AllTracks(ctx context.Context) ([]domain.Track, error) {
	tracks, ok, err := s.cache.Get(ctx, catalogCacheKey)
	if err != nil {
		s.logger.Warn("catalog cache read failed", "error", err)
	}
	if ok && err == nil {
		return tracks, nil
	}

	albums, err := s.source.ArtistAlbums(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn("failed to fetch artist albums", "error", err)
		return []domain.Track{}, nil
	}

	tracks = make([]domain.Track, 0)
	for _, album := range albums {
		albumTracks, err := s.source.AlbumTracks(ctx, album)
		if err != nil {
			s.logger.Warn("failed to fetch album tracks", "album_id", album.ID, "error", err)
			continue
		}
		tracks = append(tracks, albumTracks...)
	}

	SortTracks(tracks)

	if len(tracks) > 0 {
		if err := s.cache.Set(ctx, catalogCacheKey, tracks); err != nil {
			s.logger.Warn("catalog cache write failed", "error", err)
		}
	}
	return tracks, nil
}

// FindTrack looks a track up by catalog id
func (s *CatalogService) FindTrack(ctx context.Context, id string) (*domain.Track, error) {
	tracks, err := s.AllTracks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		if tracks[i].ID == id {
			t := tracks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTrackNotFound
}

// SortTracks orders by release date descending, then track number ascending
func SortTracks(tracks []domain.Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		ri, rj := tracks[i].Released(), tracks[j].Released()
		if !ri.Equal(rj) {
			return ri.After(rj)
		}
		return tracks[i].TrackNumber < tracks[j].TrackNumber
	})
}
