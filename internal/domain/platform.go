package domain

import (
	"fmt"
	"sort"
	"strings"
)

// PlatformLink is one resolved URL for a track on one streaming platform
type PlatformLink struct {
	Platform        string            `json:"platform"`
	URL             string            `json:"url"`
	Country         string            `json:"country"`
	EntityUniqueIDs map[string]string `json:"entityUniqueIds"`
}

// EntityInfo is display metadata for a resolved entity
type EntityInfo struct {
	Title           string `json:"title"`
	ArtistName      string `json:"artistName"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	ThumbnailWidth  int    `json:"thumbnailWidth"`
	ThumbnailHeight int    `json:"thumbnailHeight"`
}

// PlatformLinksResponse aggregates the listening links found for one track
type PlatformLinksResponse struct {
	EntityID        string                    `json:"entityId"`
	UserCountry     string                    `json:"userCountry"`
	PageURL         string                    `json:"pageUrl"`
	LinksByPlatform map[string][]PlatformLink `json:"linksByPlatform"`
	Entities        map[string]EntityInfo     `json:"entities"`
}

// FirstLink returns the first link for a platform, if any
func (r *PlatformLinksResponse) FirstLink(platform string) (PlatformLink, bool) {
	links := r.LinksByPlatform[platform]
	if len(links) == 0 {
		return PlatformLink{}, false
	}
	return links[0], true
}

// TrackQuery identifies the track whose links should be resolved
type TrackQuery struct {
	TrackName  string
	ArtistName string
	ISRC       string // optional industry identifier
	SpotifyID  string // optional source-platform identifier
}

// Validate checks that name and artist are present
func (q TrackQuery) Validate() error {
	if strings.TrimSpace(q.TrackName) == "" || strings.TrimSpace(q.ArtistName) == "" {
		return ErrInvalidTrackQuery
	}
	return nil
}

// CacheKey is the identity the resolved links are cached under
func (q TrackQuery) CacheKey() string {
	isrc := q.ISRC
	if isrc == "" {
		isrc = "no-isrc"
	}
	return fmt.Sprintf("%s-%s-%s", q.TrackName, q.ArtistName, isrc)
}

// SearchTerm is the free-text query used by search-based resolution
func (q TrackQuery) SearchTerm() string {
	return q.TrackName + " " + q.ArtistName
}

// Platform keys
const (
	PlatformSpotify      = "spotify"
	PlatformAppleMusic   = "apple_music"
	PlatformYouTubeMusic = "youtube_music"
	PlatformSoundCloud   = "soundcloud"
	PlatformBandcamp     = "bandcamp"
	PlatformAmazonMusic  = "amazon_music"
	PlatformTidal        = "tidal"
	PlatformDeezer       = "deezer"
	PlatformNapster      = "napster"
	PlatformPandora      = "pandora"
)

// PlatformConfig is the display configuration of a known platform
type PlatformConfig struct {
	Key   string
	Name  string
	Color string
	Icon  string
	Order int
}

// PlatformConfigs lists every platform the site knows how to display.
// Order is an editorial priority, lower first.
var PlatformConfigs = []PlatformConfig{
	{Key: PlatformSpotify, Name: "Spotify", Color: "#1DB954", Icon: "🎵", Order: 1},
	{Key: PlatformAppleMusic, Name: "Apple Music", Color: "#FC3C44", Icon: "🎵", Order: 2},
	{Key: PlatformYouTubeMusic, Name: "YouTube Music", Color: "#FF0000", Icon: "▶️", Order: 3},
	{Key: PlatformSoundCloud, Name: "SoundCloud", Color: "#FF5500", Icon: "🎵", Order: 4},
	{Key: PlatformBandcamp, Name: "Bandcamp", Color: "#1DA0DC", Icon: "💿", Order: 5},
	{Key: PlatformAmazonMusic, Name: "Amazon Music", Color: "#00A8E1", Icon: "🎵", Order: 6},
	{Key: PlatformTidal, Name: "TIDAL", Color: "#000000", Icon: "🎵", Order: 7},
	{Key: PlatformDeezer, Name: "Deezer", Color: "#E31E24", Icon: "🎵", Order: 8},
	{Key: PlatformNapster, Name: "Napster", Color: "#E94B3C", Icon: "🎵", Order: 9},
	{Key: PlatformPandora, Name: "Pandora", Color: "#005483", Icon: "🎵", Order: 10},
}

// LookupPlatform returns the configuration for a platform key
func LookupPlatform(key string) (PlatformConfig, bool) {
	for _, cfg := range PlatformConfigs {
		if cfg.Key == key {
			return cfg, true
		}
	}
	return PlatformConfig{}, false
}

// PlatformInfo is a display-ready platform button
type PlatformInfo struct {
	Platform string `json:"platform"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
	Order    int    `json:"order"`
}

// AvailablePlatforms projects resolved links onto the platform table.
// Platforms without links are omitted; the result is sorted by Order.
func AvailablePlatforms(links *PlatformLinksResponse) []PlatformInfo {
	platforms := make([]PlatformInfo, 0, len(PlatformConfigs))
	if links == nil {
		return platforms
	}

	for _, cfg := range PlatformConfigs {
		link, ok := links.FirstLink(cfg.Key)
		if !ok {
			continue
		}
		platforms = append(platforms, PlatformInfo{
			Platform: cfg.Key,
			Name:     cfg.Name,
			URL:      link.URL,
			Color:    cfg.Color,
			Icon:     cfg.Icon,
			Order:    cfg.Order,
		})
	}

	sort.SliceStable(platforms, func(i, j int) bool {
		return platforms[i].Order < platforms[j].Order
	})
	return platforms
}
