package domain

import "time"

// Track is one recording from the artist's catalog
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AlbumID     string `json:"albumId"`
	AlbumName   string `json:"albumName"`
	AlbumImage  string `json:"albumImage,omitempty"`
	AlbumType   string `json:"albumType"`
	ReleaseDate string `json:"releaseDate"`
	TrackNumber int    `json:"trackNumber"`
	DurationMs  int    `json:"durationMs"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	ISRC        string `json:"isrc,omitempty"`
	SpotifyURL  string `json:"spotifyUrl"`
	Explicit    bool   `json:"explicit"`
	Popularity  int    `json:"popularity"`
}

// Released parses the album release date. Catalogs report "2025", "2025-01" or "2025-01-17".
func (t *Track) Released() time.Time {
	for _, layout := range []string{time.DateOnly, "2006-01", "2006"} {
		if ts, err := time.Parse(layout, t.ReleaseDate); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Artist is the public profile of the artist
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Followers  int      `json:"followers"`
	Popularity int      `json:"popularity"`
	ImageURL   string   `json:"imageUrl"`
	Genres     []string `json:"genres"`
}
