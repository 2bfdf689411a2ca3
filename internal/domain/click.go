package domain

import (
	"strings"
	"time"
)

// ClickEvent represents a single outbound click on a platform "listen" link.
// Timestamp is in epoch milliseconds to match what browsers send.
type ClickEvent struct {
	TrackID      string `json:"trackId"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	Platform     string `json:"platform"`
	PlatformName string `json:"platformName"`
	URL          string `json:"url"`
	Timestamp    int64  `json:"timestamp"`
	UserAgent    string `json:"userAgent"`
	Referrer     string `json:"referrer,omitempty"`
	Country      string `json:"country,omitempty"`
}

// NewClickEvent creates a click event stamped with the current time
func NewClickEvent(trackID, trackName, artistName, platform string) *ClickEvent {
	return &ClickEvent{
		TrackID:    trackID,
		TrackName:  trackName,
		ArtistName: artistName,
		Platform:   platform,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// WithPlatformLink sets the display name and destination of the clicked link
func (c *ClickEvent) WithPlatformLink(platformName, url string) *ClickEvent {
	c.PlatformName = platformName
	c.URL = url
	return c
}

// WithClient sets the browser information of the visitor
func (c *ClickEvent) WithClient(userAgent, referrer, country string) *ClickEvent {
	c.UserAgent = userAgent
	c.Referrer = referrer
	c.Country = country
	return c
}

// Validate checks the fields every stored click must carry
func (c *ClickEvent) Validate() error {
	if strings.TrimSpace(c.TrackID) == "" ||
		strings.TrimSpace(c.Platform) == "" ||
		strings.TrimSpace(c.TrackName) == "" {
		return ErrInvalidClickEvent
	}
	return nil
}

// StampIfMissing fills Timestamp with now when the caller omitted it.
func (c *ClickEvent) StampIfMissing(now time.Time) {
	if c.Timestamp <= 0 {
		c.Timestamp = now.UnixMilli()
	}
}

// Time returns the event timestamp as a time.Time in UTC
func (c *ClickEvent) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Day returns the calendar date (UTC) the click happened on, e.g. "2025-01-17"
func (c *ClickEvent) Day() string {
	return c.Time().Format(time.DateOnly)
}

// ClickFilter narrows a click query. Empty fields match everything.
type ClickFilter struct {
	TrackID  string
	Platform string
	Limit    int
}

// Matches reports whether the event passes the equality filters
func (f ClickFilter) Matches(c *ClickEvent) bool {
	if f.TrackID != "" && c.TrackID != f.TrackID {
		return false
	}
	if f.Platform != "" && c.Platform != f.Platform {
		return false
	}
	return true
}

// ClickStats holds aggregate counts over the stored click events
type ClickStats struct {
	TotalClicks      int64            `json:"totalClicks"`
	FilteredClicks   int64            `json:"filteredClicks"`
	ClicksByTrack    map[string]int64 `json:"clicksByTrack"`
	ClicksByPlatform map[string]int64 `json:"clicksByPlatform"`
	ClicksByDate     map[string]int64 `json:"clicksByDate"`
}

// NewClickStats returns stats with initialised maps so they encode as {} rather than null
func NewClickStats() *ClickStats {
	return &ClickStats{
		ClicksByTrack:    make(map[string]int64),
		ClicksByPlatform: make(map[string]int64),
		ClicksByDate:     make(map[string]int64),
	}
}

// Add counts one event into the per-track, per-platform and per-date totals
func (s *ClickStats) Add(c *ClickEvent) {
	s.TotalClicks++
	s.ClicksByTrack[c.TrackID]++
	s.ClicksByPlatform[c.Platform]++
	s.ClicksByDate[c.Day()]++
}

// ClickReport is the answer to a click query
type ClickReport struct {
	Stats  *ClickStats   `json:"stats"`
	Events []*ClickEvent `json:"events"`
	Total  int64         `json:"total"`
}
