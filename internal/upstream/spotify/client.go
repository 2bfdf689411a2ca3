// Package spotify reads the artist catalog from the Spotify Web API using
// the client-credentials flow.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
)

const (
	DefaultAccountsURL = "https://accounts.spotify.com"
	DefaultAPIURL      = "https://api.spotify.com"

	// tokens are refreshed this long before they expire
	tokenSafetyMargin = 300 * time.Second
	pageLimit         = 50
)

// Doer sends a request and rejects non-2xx responses
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds credentials and endpoints
type Config struct {
	ClientID     string
	ClientSecret string
	ArtistID     string
	AccountsURL  string
	APIURL       string
}

// Client is safe for concurrent use
type Client struct {
	http   Doer
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a catalog client
func NewClient(doer Doer, cfg Config, logger *slog.Logger) *Client {
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = DefaultAccountsURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.AccountsURL = strings.TrimRight(cfg.AccountsURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{
		http:   doer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Configured reports whether credentials and an artist id are present
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != "" && c.cfg.ArtistID != ""
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", domain.ErrMissingAPIKey
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AccountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify authentication: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("spotify authentication: empty access token")
	}

	c.token = body.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(body.ExpiresIn)*time.Second - tokenSafetyMargin)
	return c.token, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	u := c.cfg.APIURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify %s: decode response: %w", path, err)
	}
	return nil
}

type image struct {
	URL string `json:"url"`
}

type apiArtist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
	Popularity int      `json:"popularity"`
	Images     []image  `json:"images"`
	Genres     []string `json:"genres"`
}

// Album is the subset of album metadata the catalog needs
type Album struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date"`
	AlbumType   string  `json:"album_type"`
	TotalTracks int     `json:"total_tracks"`
	Images      []image `json:"images"`
}

func (a Album) imageURL() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0].URL
}

type apiTrack struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TrackNumber  int    `json:"track_number"`
	DurationMs   int    `json:"duration_ms"`
	PreviewURL   string `json:"preview_url"`
	Explicit     bool   `json:"explicit"`
	Popularity   int    `json:"popularity"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	ExternalIDs struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
	Album *Album `json:"album"`
}

func (t apiTrack) toDomain(fallbackAlbum Album) domain.Track {
	album := fallbackAlbum
	if t.Album != nil && t.Album.ID != "" {
		album = *t.Album
	}
	return domain.Track{
		ID:          t.ID,
		Name:        t.Name,
		AlbumID:     album.ID,
		AlbumName:   album.Name,
		AlbumImage:  album.imageURL(),
		AlbumType:   album.AlbumType,
		ReleaseDate: album.ReleaseDate,
		TrackNumber: t.TrackNumber,
		DurationMs:  t.DurationMs,
		PreviewURL:  t.PreviewURL,
		ISRC:        t.ExternalIDs.ISRC,
		SpotifyURL:  t.ExternalURLs.Spotify,
		Explicit:    t.Explicit,
		Popularity:  t.Popularity,
	}
}

// Artist fetches the configured artist profile
func (c *Client) Artist(ctx context.Context) (*domain.Artist, error) {
	var a apiArtist
	if err := c.getJSON(ctx, "/v1/artists/"+url.PathEscape(c.cfg.ArtistID), nil, &a); err != nil {
		return nil, err
	}
	artist := &domain.Artist{
		ID:         a.ID,
		Name:       a.Name,
		Followers:  a.Followers.Total,
		Popularity: a.Popularity,
		Genres:     a.Genres,
	}
	if len(a.Images) > 0 {
		artist.ImageURL = a.Images[0].URL
	}
	if artist.Genres == nil {
		artist.Genres = []string{}
	}
	return artist, nil
}

// ArtistAlbums lists up to 50 albums, singles and compilations
func (c *Client) ArtistAlbums(ctx context.Context) ([]Album, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(pageLimit))
	params.Set("include_groups", "album,single,compilation")

	var page struct {
		Items []Album `json:"items"`
	}
	if err := c.getJSON(ctx, "/v1/artists/"+url.PathEscape(c.cfg.ArtistID)+"/albums", params, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// AlbumTracks lists the tracks of an album with full details. When the detail
// lookup of a track fails its simplified form is kept.
func (c *Client) AlbumTracks(ctx context.Context, album Album) ([]domain.Track, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(pageLimit))

	var page struct {
		Items []apiTrack `json:"items"`
	}
	if err := c.getJSON(ctx, "/v1/albums/"+url.PathEscape(album.ID)+"/tracks", params, &page); err != nil {
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(page.Items))
	for _, simple := range page.Items {
		if simple.ID == "" {
			continue
		}
		detailed, err := c.track(ctx, simple.ID)
		if err != nil {
			c.logger.Warn("track detail lookup failed", "track_id", simple.ID, "error", err)
			tracks = append(tracks, simple.toDomain(album))
			continue
		}
		tracks = append(tracks, detailed.toDomain(album))
	}
	return tracks, nil
}

// Track fetches a single track by id
func (c *Client) Track(ctx context.Context, id string) (*domain.Track, error) {
	t, err := c.track(ctx, id)
	if err != nil {
		return nil, err
	}
	track := t.toDomain(Album{})
	return &track, nil
}

func (c *Client) track(ctx context.Context, id string) (apiTrack, error) {
	var t apiTrack
	err := c.getJSON(ctx, "/v1/tracks/"+url.PathEscape(id), nil, &t)
	return t, err
}
