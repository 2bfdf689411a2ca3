// Package songlink is a client for the song.link / Odesli link aggregation API.
package songlink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
)

const DefaultBaseURL = "https://api.song.link"

// Getter performs GET requests and rejects non-2xx responses
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// Client resolves a track reference into per-platform links
type Client struct {
	http        Getter
	baseURL     string
	apiKey      string
	userCountry string
}

// NewClient creates a client. An empty apiKey makes every call fail with domain.ErrMissingAPIKey.
func NewClient(getter Getter, baseURL, apiKey, userCountry string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userCountry == "" {
		userCountry = "US"
	}
	return &Client{
		http:        getter,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		userCountry: userCountry,
	}
}

// LinksByURL resolves links for a platform URL such as https://open.spotify.com/track/{id}
func (c *Client) LinksByURL(ctx context.Context, sourceURL string) (*domain.PlatformLinksResponse, error) {
	if c.apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("url", sourceURL)
	params.Set("userCountry", c.userCountry)
	params.Set("key", c.apiKey)

	var body linksResponse
	if err := c.getJSON(ctx, "/v1/links", params, &body); err != nil {
		return nil, err
	}
	return body.toDomain(), nil
}

// LinksByISRC resolves links for an industry recording code
func (c *Client) LinksByISRC(ctx context.Context, isrc string) (*domain.PlatformLinksResponse, error) {
	return c.LinksByURL(ctx, "isrc:"+isrc)
}

// Search returns the id of the best song match for a free-text query
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("type", "song")
	params.Set("query", query)
	params.Set("userCountry", c.userCountry)
	params.Set("key", c.apiKey)

	var body searchResponse
	if err := c.getJSON(ctx, "/v1/search", params, &body); err != nil {
		return "", err
	}
	if len(body.Results) == 0 || body.Results[0].ID == "" {
		return "", domain.ErrLinksNotFound
	}
	return body.Results[0].ID, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.http.Get(ctx, c.baseURL+path+"?"+params.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return fmt.Errorf("songlink %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("songlink %s: decode response: %w", path, err)
	}
	return nil
}

type searchResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

type linksResponse struct {
	EntityID        string                       `json:"entityUniqueId"`
	LegacyEntityID  string                       `json:"entityId"`
	UserCountry     string                       `json:"userCountry"`
	PageURL         string                       `json:"pageUrl"`
	LinksByPlatform map[string]platformLinks     `json:"linksByPlatform"`
	Entities        map[string]domain.EntityInfo `json:"entitiesByUniqueId"`
	LegacyEntities  map[string]domain.EntityInfo `json:"entities"`
}

type rawLink struct {
	Platform        string            `json:"platform"`
	URL             string            `json:"url"`
	Country         string            `json:"country"`
	EntityUniqueID  string            `json:"entityUniqueId"`
	EntityUniqueIDs map[string]string `json:"entityUniqueIds"`
}

// platformLinks accepts either a single link object or an array of them
type platformLinks []rawLink

func (p *platformLinks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []rawLink
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*p = many
		return nil
	}
	var one rawLink
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*p = platformLinks{one}
	return nil
}

func (r *linksResponse) toDomain() *domain.PlatformLinksResponse {
	out := &domain.PlatformLinksResponse{
		EntityID:        r.EntityID,
		UserCountry:     r.UserCountry,
		PageURL:         r.PageURL,
		LinksByPlatform: make(map[string][]domain.PlatformLink, len(r.LinksByPlatform)),
		Entities:        r.Entities,
	}
	if out.EntityID == "" {
		out.EntityID = r.LegacyEntityID
	}
	if out.Entities == nil {
		out.Entities = r.LegacyEntities
	}
	if out.Entities == nil {
		out.Entities = map[string]domain.EntityInfo{}
	}

	for key, links := range r.LinksByPlatform {
		platform := NormalizePlatform(key)
		for _, l := range links {
			if l.URL == "" {
				continue
			}
			ids := l.EntityUniqueIDs
			if ids == nil {
				ids = map[string]string{}
				if l.EntityUniqueID != "" {
					ids["entityUniqueId"] = l.EntityUniqueID
				}
			}
			country := l.Country
			if country == "" {
				country = r.UserCountry
			}
			out.LinksByPlatform[platform] = append(out.LinksByPlatform[platform], domain.PlatformLink{
				Platform:        platform,
				URL:             l.URL,
				Country:         country,
				EntityUniqueIDs: ids,
			})
		}
	}
	return out
}

// NormalizePlatform maps API keys such as "appleMusic" onto table keys such as "apple_music"
func NormalizePlatform(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
