package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/pkg/validator"
)

// FeedService serves the blog listing
type FeedService interface {
	GetPosts(ctx context.Context, limit int, mode domain.SortMode) *domain.FeedResult
}

// PlatformLinkService resolves where a track can be streamed
type PlatformLinkService interface {
	GetPlatformLinks(ctx context.Context, q domain.TrackQuery) (*domain.PlatformLinksResponse, error)
	AvailablePlatforms(links *domain.PlatformLinksResponse) []domain.PlatformInfo
}

// CatalogService reads the artist profile and tracks
type CatalogService interface {
	Artist(ctx context.Context) (*domain.Artist, error)
	AllTracks(ctx context.Context) ([]domain.Track, error)
	FindTrack(ctx context.Context, id string) (*domain.Track, error)
}

// AnalyticsService records and reports platform clicks
type AnalyticsService interface {
	RecordClick(ctx context.Context, click *domain.ClickEvent) error
	QueryClicks(ctx context.Context, filter domain.ClickFilter) (*domain.ClickReport, error)
}

// Services groups the dependencies of the handler
type Services struct {
	Feed      FeedService
	Links     PlatformLinkService
	Catalog   CatalogService
	Analytics AnalyticsService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	feed       FeedService
	links      PlatformLinkService
	catalog    CatalogService
	analytics  AnalyticsService
	validate   *validator.Validator
	logger     *slog.Logger
	artistName string // used when resolving links for catalog tracks
	now        func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger *slog.Logger, artistName string) *Handler {
	return &Handler{
		feed:       services.Feed,
		links:      services.Links,
		catalog:    services.Catalog,
		analytics:  services.Analytics,
		validate:   validator.New(),
		logger:     logger,
		artistName: artistName,
		now:        time.Now,
	}
}

// RegisterRoutes mounts every API route on mux. clickMiddleware wraps the
// click recording endpoint only.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, clickMiddleware ...func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/medium", h.GetMediumPosts)

	mux.HandleFunc("GET /api/platform-links", h.GetPlatformLinks)
	mux.HandleFunc("POST /api/platform-links", h.ResolvePlatformLinks)

	mux.Handle("POST /api/analytics/click", Chain(clickMiddleware...)(http.HandlerFunc(h.TrackClick)))
	mux.HandleFunc("GET /api/analytics/click", h.GetClickAnalytics)

	mux.HandleFunc("GET /api/spotify/artist", h.GetArtist)
	mux.HandleFunc("GET /api/spotify/tracks", h.GetTracks)

	mux.HandleFunc("GET /health/live", h.HealthCheck)
}

// Request/Response DTOs

type PlatformLinksRequest struct {
	TrackName  string `json:"trackName" validate:"required,max=300"`
	ArtistName string `json:"artistName" validate:"required,max=300"`
	ISRC       string `json:"isrc,omitempty" validate:"omitempty,max=32"`
	SpotifyID  string `json:"spotifyId,omitempty" validate:"omitempty,max=64"`
}

type TrackClickRequest struct {
	TrackID      string `json:"trackId" validate:"required"`
	TrackName    string `json:"trackName" validate:"required"`
	ArtistName   string `json:"artistName"`
	Platform     string `json:"platform" validate:"required"`
	PlatformName string `json:"platformName"`
	URL          string `json:"url"`
	Timestamp    int64  `json:"timestamp"`
	UserAgent    string `json:"userAgent"`
	Referrer     string `json:"referrer,omitempty"`
	Country      string `json:"country,omitempty"`
}

type FeedResponse struct {
	Data        []domain.FeedPost `json:"data"`
	LastUpdated string            `json:"lastUpdated"`
	Source      string            `json:"source"`
	TotalPosts  int               `json:"totalPosts"`
	HasMore     bool              `json:"hasMore"`
}

type TrackLinks struct {
	TrackID     string                `json:"trackId"`
	TrackName   string                `json:"trackName"`
	AlbumName   string                `json:"albumName"`
	AlbumImage  string                `json:"albumImage,omitempty"`
	Platforms   []domain.PlatformInfo `json:"platforms"`
	LastUpdated string                `json:"lastUpdated"`
}

type TrackLinksDetail struct {
	TrackLinks
	Entities map[string]domain.EntityInfo `json:"entities"`
	PageURL  string                       `json:"pageUrl"`
}

type AllTrackLinksResponse struct {
	Success     bool         `json:"success"`
	Data        []TrackLinks `json:"data"`
	TotalTracks int          `json:"totalTracks"`
	LastUpdated string       `json:"lastUpdated"`
}

type ResolvedLinks struct {
	TrackName   string                       `json:"trackName"`
	ArtistName  string                       `json:"artistName"`
	Platforms   []domain.PlatformInfo        `json:"platforms"`
	Entities    map[string]domain.EntityInfo `json:"entities"`
	PageURL     string                       `json:"pageUrl"`
	LastUpdated string                       `json:"lastUpdated"`
}

type TrackClickResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type ClickAnalyticsResponse struct {
	Success bool                 `json:"success"`
	Stats   *domain.ClickStats   `json:"stats"`
	Events  []*domain.ClickEvent `json:"events"`
	Total   int64                `json:"total"`
}

type ArtistResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Followers  int      `json:"followers"`
	Popularity int      `json:"popularity"`
	ImageURL   *string  `json:"imageUrl"`
	Genres     []string `json:"genres"`
}

type TracksResponse struct {
	Data        []domain.Track `json:"data"`
	Total       int            `json:"total"`
	LastUpdated string         `json:"lastUpdated"`
}

// GetMediumPosts handles GET /api/medium
func (h *Handler) GetMediumPosts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")
	mode := domain.ParseSortMode(r.URL.Query().Get("sort"))

	result := h.feed.GetPosts(r.Context(), limit, mode)

	posts := result.Posts
	if posts == nil {
		posts = []domain.FeedPost{}
	}
	respondJSON(w, http.StatusOK, FeedResponse{
		Data:        posts,
		LastUpdated: isoTime(result.LastUpdated),
		Source:      result.Source,
		TotalPosts:  result.TotalPosts,
		HasMore:     result.HasMore,
	})
}

// GetPlatformLinks handles GET /api/platform-links?trackId=... or ?fetchAll=true
func (h *Handler) GetPlatformLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	trackID := strings.TrimSpace(q.Get("trackId"))

	switch {
	case q.Get("fetchAll") == "true":
		h.allTrackLinks(w, r)
	case trackID != "":
		h.trackLinks(w, r, trackID)
	default:
		respondError(w, http.StatusBadRequest, "Either trackId or fetchAll parameter is required")
	}
}

func (h *Handler) allTrackLinks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalog.AllTracks(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tracks", "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to fetch platform links")
		return
	}

	seen := make(map[string]struct{}, len(tracks))
	items := make([]TrackLinks, 0, len(tracks))
	for _, track := range tracks {
		if _, dup := seen[track.ID]; dup {
			continue
		}
		links, err := h.links.GetPlatformLinks(r.Context(), h.trackQuery(track))
		if err != nil {
			h.logger.Warn("Failed to fetch platform links for track", "track_id", track.ID, "error", err)
			continue
		}
		seen[track.ID] = struct{}{}
		items = append(items, h.trackLinksItem(track, links))
	}

	respondJSON(w, http.StatusOK, AllTrackLinksResponse{
		Success:     true,
		Data:        items,
		TotalTracks: len(items),
		LastUpdated: isoTime(h.now()),
	})
}

func (h *Handler) trackLinks(w http.ResponseWriter, r *http.Request, trackID string) {
	track, err := h.catalog.FindTrack(r.Context(), trackID)
	if errors.Is(err, domain.ErrTrackNotFound) {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to find track", "track_id", trackID, "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to fetch platform links")
		return
	}

	links, err := h.links.GetPlatformLinks(r.Context(), h.trackQuery(*track))
	if err != nil {
		h.linksError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, TrackLinksDetail{
		TrackLinks: h.trackLinksItem(*track, links),
		Entities:   links.Entities,
		PageURL:    links.PageURL,
	})
}

// ResolvePlatformLinks handles POST /api/platform-links
func (h *Handler) ResolvePlatformLinks(w http.ResponseWriter, r *http.Request) {
	var req PlatformLinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if err := h.validate.Validate(&req); err != nil {
		var fieldErr *validator.FieldError
		if errors.As(err, &fieldErr) && containsAny(fieldErr.Fields, "trackName", "artistName") {
			respondError(w, http.StatusBadRequest, "trackName and artistName are required")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	links, err := h.links.GetPlatformLinks(r.Context(), domain.TrackQuery{
		TrackName:  req.TrackName,
		ArtistName: req.ArtistName,
		ISRC:       req.ISRC,
		SpotifyID:  req.SpotifyID,
	})
	if err != nil {
		h.linksError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, ResolvedLinks{
		TrackName:   req.TrackName,
		ArtistName:  req.ArtistName,
		Platforms:   h.links.AvailablePlatforms(links),
		Entities:    links.Entities,
		PageURL:     links.PageURL,
		LastUpdated: isoTime(h.now()),
	})
}

func (h *Handler) linksError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTrackQuery):
		respondError(w, http.StatusBadRequest, "trackName and artistName are required")
	case errors.Is(err, domain.ErrLinksNotFound):
		respondError(w, http.StatusNotFound, "Platform links not found")
	default:
		h.logger.Error("Failed to fetch platform links", "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to fetch platform links")
	}
}

func (h *Handler) trackQuery(track domain.Track) domain.TrackQuery {
	return domain.TrackQuery{
		TrackName:  track.Name,
		ArtistName: h.artistName,
		ISRC:       track.ISRC,
		SpotifyID:  track.ID,
	}
}

func (h *Handler) trackLinksItem(track domain.Track, links *domain.PlatformLinksResponse) TrackLinks {
	return TrackLinks{
		TrackID:     track.ID,
		TrackName:   track.Name,
		AlbumName:   track.AlbumName,
		AlbumImage:  track.AlbumImage,
		Platforms:   h.links.AvailablePlatforms(links),
		LastUpdated: isoTime(h.now()),
	}
}

// TrackClick handles POST /api/analytics/click
func (h *Handler) TrackClick(w http.ResponseWriter, r *http.Request) {
	var req TrackClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if err := h.validate.Validate(&req); err != nil {
		respondValidationError(w, "Missing required fields: trackId, platform, trackName", err)
		return
	}

	click := &domain.ClickEvent{
		TrackID:      req.TrackID,
		TrackName:    req.TrackName,
		ArtistName:   req.ArtistName,
		Platform:     req.Platform,
		PlatformName: req.PlatformName,
		URL:          req.URL,
		Timestamp:    req.Timestamp,
		UserAgent:    req.UserAgent,
		Referrer:     req.Referrer,
		Country:      req.Country,
	}
	if click.UserAgent == "" {
		click.UserAgent = r.UserAgent()
	}

	if err := h.analytics.RecordClick(r.Context(), click); err != nil {
		if errors.Is(err, domain.ErrInvalidClickEvent) {
			respondError(w, http.StatusBadRequest, "Missing required fields: trackId, platform, trackName")
			return
		}
		h.logger.Error("Failed to track click", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to track click")
		return
	}

	respondJSON(w, http.StatusOK, TrackClickResponse{
		Success:   true,
		Message:   "Click tracked successfully",
		Timestamp: click.Timestamp,
	})
}

// GetClickAnalytics handles GET /api/analytics/click
func (h *Handler) GetClickAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.analytics.QueryClicks(r.Context(), domain.ClickFilter{
		TrackID:  q.Get("trackId"),
		Platform: q.Get("platform"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		h.logger.Error("Failed to fetch analytics data", "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to fetch analytics data")
		return
	}

	events := report.Events
	if events == nil {
		events = []*domain.ClickEvent{}
	}
	respondJSON(w, http.StatusOK, ClickAnalyticsResponse{
		Success: true,
		Stats:   report.Stats,
		Events:  events,
		Total:   report.Total,
	})
}

// GetArtist handles GET /api/spotify/artist
func (h *Handler) GetArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := h.catalog.Artist(r.Context())
	if errors.Is(err, domain.ErrArtistNotFound) {
		respondError(w, http.StatusNotFound, "Artist not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to fetch artist", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch artist data")
		return
	}

	resp := ArtistResponse{
		ID:         artist.ID,
		Name:       artist.Name,
		Followers:  artist.Followers,
		Popularity: artist.Popularity,
		Genres:     artist.Genres,
	}
	if artist.ImageURL != "" {
		resp.ImageURL = &artist.ImageURL
	}
	if resp.Genres == nil {
		resp.Genres = []string{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetTracks handles GET /api/spotify/tracks
func (h *Handler) GetTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalog.AllTracks(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch tracks", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "Failed to fetch tracks data",
			"data":  []domain.Track{},
		})
		return
	}
	if len(tracks) == 0 {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"error": "No tracks found",
			"data":  []domain.Track{},
		})
		return
	}

	respondJSON(w, http.StatusOK, TracksResponse{
		Data:        tracks,
		Total:       len(tracks),
		LastUpdated: isoTime(h.now()),
	})
}

// HealthCheck handles GET /health/live
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// queryInt reads an integer query parameter; missing or malformed values read as 0
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return n
}

// isoTime formats t the way browsers print dates, e.g. 2025-01-17T10:00:00.000Z
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func containsAny(fields []string, names ...string) bool {
	for _, f := range fields {
		for _, n := range names {
			if f == n {
				return true
			}
		}
	}
	return false
}
