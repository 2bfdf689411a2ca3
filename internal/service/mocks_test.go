package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/upstream/spotify"

	"github.com/stretchr/testify/mock"
)

// ==================== MOCKS ====================

// MockGetter is a mock implementation of Getter.
// Return a string to serve it as a 200 body.
type MockGetter struct {
	mock.Mock
}

func (m *MockGetter) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	args := m.Called(ctx, url, headers)
	if body, ok := args.Get(0).(string); ok {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLinkResolver is a mock implementation of LinkResolver
type MockLinkResolver struct {
	mock.Mock
}

func (m *MockLinkResolver) LinksByURL(ctx context.Context, sourceURL string) (*domain.PlatformLinksResponse, error) {
	args := m.Called(ctx, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlatformLinksResponse), args.Error(1)
}

func (m *MockLinkResolver) LinksByISRC(ctx context.Context, isrc string) (*domain.PlatformLinksResponse, error) {
	args := m.Called(ctx, isrc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlatformLinksResponse), args.Error(1)
}

func (m *MockLinkResolver) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

// MockCatalogSource is a mock implementation of CatalogSource
type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) Artist(ctx context.Context) (*domain.Artist, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artist), args.Error(1)
}

func (m *MockCatalogSource) ArtistAlbums(ctx context.Context) ([]spotify.Album, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]spotify.Album), args.Error(1)
}

func (m *MockCatalogSource) AlbumTracks(ctx context.Context, album spotify.Album) ([]domain.Track, error) {
	args := m.Called(ctx, album)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Track), args.Error(1)
}

// MockClickRepository is a mock implementation of repository.ClickRepository
type MockClickRepository struct {
	mock.Mock
}

func (m *MockClickRepository) Create(ctx context.Context, click *domain.ClickEvent) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockClickRepository) List(ctx context.Context, filter domain.ClickFilter) ([]*domain.ClickEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClickEvent), args.Error(1)
}

func (m *MockClickRepository) Count(ctx context.Context, filter domain.ClickFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClickRepository) Stats(ctx context.Context) (*domain.ClickStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClickStats), args.Error(1)
}

// failingStore is a cache whose every operation errors
type failingStore[V any] struct{}

func (failingStore[V]) Get(context.Context, string) (V, bool, error) {
	var zero V
	return zero, false, io.ErrUnexpectedEOF
}

func (failingStore[V]) Set(context.Context, string, V) error {
	return io.ErrUnexpectedEOF
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
