package domain

import (
	"strings"
	"time"
)

// FeedPost is one externally published article surfaced on the blog page
type FeedPost struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle"`
	Author        string    `json:"author"`
	PublishedDate time.Time `json:"publishedDate"`
	ReadTime      string    `json:"readTime"`
	Link          string    `json:"link"`
	Thumbnail     string    `json:"thumbnail"`
	Tags          []string  `json:"tags"`
	Claps         int       `json:"claps"`
}

// Valid reports whether the post carries the two fields a record cannot live without
func (p *FeedPost) Valid() bool {
	return strings.TrimSpace(p.Title) != "" && strings.TrimSpace(p.Link) != ""
}

// SortMode selects the order of a post listing
type SortMode string

const (
	SortLatest  SortMode = "latest"
	SortOldest  SortMode = "oldest"
	SortPopular SortMode = "popular"
)

// ParseSortMode maps a query value to a SortMode, defaulting to SortLatest
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortPopular:
		return SortPopular
	default:
		return SortLatest
	}
}

// Feed sources reported alongside a listing
const (
	SourceCache    = "cache"
	SourceFeed     = "medium-rss"
	SourceFallback = "fallback"
)

// FeedResult is a ranked, truncated listing together with where it came from
type FeedResult struct {
	Posts       []FeedPost
	LastUpdated time.Time
	Source      string
	TotalPosts  int
	HasMore     bool
}
