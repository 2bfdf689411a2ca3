package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/cache"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/upstream/spotify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCatalogService(source CatalogSource) *CatalogService {
	return NewCatalogService(source, cache.NewMemoryStore[[]domain.Track]("catalog", 1, time.Minute), discardLogger())
}

func TestAllTracks_SortedAndCached(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ep := spotify.Album{ID: "ep", ReleaseDate: "2022-03-01"}
	single := spotify.Album{ID: "single", ReleaseDate: "2024"}
	source := new(MockCatalogSource)
	source.On("ArtistAlbums", mock.Anything).Return([]spotify.Album{ep, single}, nil).Once()
	source.On("AlbumTracks", mock.Anything, ep).Return([]domain.Track{
		{ID: "e2", TrackNumber: 2, ReleaseDate: "2022-03-01"},
		{ID: "e1", TrackNumber: 1, ReleaseDate: "2022-03-01"},
	}, nil).Once()
	source.On("AlbumTracks", mock.Anything, single).Return([]domain.Track{
		{ID: "s1", TrackNumber: 1, ReleaseDate: "2024"},
	}, nil).Once()
	svc := newCatalogService(source)

	// Act
	tracks, err := svc.AllTracks(ctx)
	require.NoError(t, err)
	again, err := svc.AllTracks(ctx)
	require.NoError(t, err)

	// Assert
	ids := []string{tracks[0].ID, tracks[1].ID, tracks[2].ID}
	assert.Equal(t, []string{"s1", "e1", "e2"}, ids)
	assert.Equal(t, tracks, again)
	source.AssertExpectations(t)
}

func TestAllTracks_AlbumFailureIsSkipped(t *testing.T) {
	ok := spotify.Album{ID: "ok", ReleaseDate: "2023-01-01"}
	broken := spotify.Album{ID: "broken", ReleaseDate: "2023-02-01"}
	source := new(MockCatalogSource)
	source.On("ArtistAlbums", mock.Anything).Return([]spotify.Album{broken, ok}, nil)
	source.On("AlbumTracks", mock.Anything, broken).Return(nil, errors.New("500"))
	source.On("AlbumTracks", mock.Anything, ok).Return([]domain.Track{{ID: "t1"}}, nil)
	svc := newCatalogService(source)

	tracks, err := svc.AllTracks(context.Background())

	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "t1", tracks[0].ID)
}

func TestAllTracks_UpstreamDownYieldsEmptyUncachedList(t *testing.T) {
	ctx := context.Background()
	source := new(MockCatalogSource)
	source.On("ArtistAlbums", mock.Anything).Return(nil, domain.ErrMissingAPIKey).Twice()
	svc := newCatalogService(source)

	tracks, err := svc.AllTracks(ctx)
	require.NoError(t, err)
	_, err = svc.AllTracks(ctx)
	require.NoError(t, err)

	assert.Empty(t, tracks)
	assert.NotNil(t, tracks)
	source.AssertNumberOfCalls(t, "ArtistAlbums", 2)
}

func TestFindTrack(t *testing.T) {
	album := spotify.Album{ID: "a"}
	source := new(MockCatalogSource)
	source.On("ArtistAlbums", mock.Anything).Return([]spotify.Album{album}, nil)
	source.On("AlbumTracks", mock.Anything, album).Return([]domain.Track{{ID: "t1", Name: "Lantern"}}, nil)
	svc := newCatalogService(source)

	track, err := svc.FindTrack(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Lantern", track.Name)

	_, err = svc.FindTrack(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestArtist(t *testing.T) {
	source := new(MockCatalogSource)
	source.On("Artist", mock.Anything).Return(&domain.Artist{ID: "a1", Name: "Lazy Perfectionist"}, nil).Once()
	source.On("Artist", mock.Anything).Return(nil, errors.New("401")).Once()
	svc := newCatalogService(source)

	artist, err := svc.Artist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Lazy Perfectionist", artist.Name)

	_, err = svc.Artist(context.Background())
	assert.ErrorIs(t, err, domain.ErrArtistNotFound)
}
