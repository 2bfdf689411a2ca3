// Package feed turns a Medium RSS document into ranked FeedPost records.
package feed

import (
	"fmt"
	"hash/fnv"
	"html"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const (
	// MaxItems is the number of feed items considered per fetch
	MaxItems = 15

	DefaultThumbnail = "https://miro.medium.com/v2/resize:fit:800/1*Kp77tzjwdHidXpZ0lYMadw.png"

	maxSubtitleRunes = 200
	maxTags          = 5
	wordsPerMinute   = 200
)

// DefaultTags is used when an item carries no usable category
var DefaultTags = []string{"music", "creativity", "writing"}

var (
	strict       = bluemonday.StrictPolicy()
	whitespaceRe = regexp.MustCompile(`\s+`)
	mediumSizeRe = regexp.MustCompile(`v2/resize:[^/]+`)
)

// Options control derived attributes
type Options struct {
	Author string
	// Now is the reference time for missing dates and post age. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Parse reads an RSS/Atom document and returns the valid posts among its
// first MaxItems items, in document order.
func Parse(r io.Reader, opts Options) ([]domain.FeedPost, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := parsed.Items
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}

	posts := make([]domain.FeedPost, 0, len(items))
	for i, item := range items {
		post, ok := postFromItem(item, i, opts)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func postFromItem(item *gofeed.Item, index int, opts Options) (domain.FeedPost, bool) {
	link := strings.TrimSpace(item.Link)
	if strings.TrimSpace(item.Title) == "" || link == "" {
		return domain.FeedPost{}, false
	}

	now := opts.now()

	title := CleanText(item.Title)
	if title == "" {
		title = fmt.Sprintf("Medium Post %d", index+1)
	}

	subtitle := truncateRunes(CleanText(item.Description), maxSubtitleRunes)
	if subtitle == "" {
		subtitle = "Latest article from " + opts.Author
	}

	published := now
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	return domain.FeedPost{
		ID:            fmt.Sprintf("medium-%d", index),
		Title:         title,
		Subtitle:      subtitle,
		Author:        opts.Author,
		PublishedDate: published.UTC(),
		ReadTime:      ReadTime(content),
		Link:          link,
		Thumbnail:     Thumbnail(content),
		Tags:          Tags(item.Categories),
		Claps:         Claps(link, published, now),
	}, true
}

// CleanText strips markup and entities and collapses whitespace
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(strict.Sanitize(s))
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Thumbnail returns the first image of content, resized when it lives on the Medium CDN
func Thumbnail(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return DefaultThumbnail
	}
	src, ok := doc.Find("img[src]").First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return DefaultThumbnail
	}
	if strings.Contains(src, "miro.medium.com") {
		return mediumSizeRe.ReplaceAllString(src, "v2/resize:fit:800")
	}
	return src
}

// Tags cleans categories, drops empty and repeated ones and keeps the first five
func Tags(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	tags := make([]string, 0, maxTags)
	for _, c := range categories {
		tag := CleanText(c)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	if len(tags) == 0 {
		return append([]string(nil), DefaultTags...)
	}
	return tags
}

// ReadTime estimates reading time at 200 words per minute, at least one minute
func ReadTime(content string) string {
	words := 0
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		words = len(strings.Fields(doc.Text()))
	}
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// Claps is a placeholder popularity score. It decays by two per day since
// publication with a per-link offset in [0,100), and never drops below 10.
func Claps(link string, published, now time.Time) int {
	days := int(now.Sub(published).Hours() / 24)
	h := fnv.New32a()
	_, _ = h.Write([]byte(link))
	jitter := int(h.Sum32() % 100)

	score := jitter + (100 - days*2)
	if score < 10 {
		return 10
	}
	return score
}

// Sort orders posts in place. Ties keep their relative order.
func Sort(posts []domain.FeedPost, mode domain.SortMode) {
	switch mode {
	case domain.SortOldest:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].PublishedDate.Before(posts[j].PublishedDate)
		})
	case domain.SortPopular:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Claps > posts[j].Claps
		})
	default:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].PublishedDate.After(posts[j].PublishedDate)
		})
	}
}

// Fallback is the single post served when the feed cannot be read
func Fallback(author string, now time.Time) domain.FeedPost {
	return domain.FeedPost{
		ID:            "fallback-1",
		Title:         fmt.Sprintf("Read writing from %s on Medium", author),
		Subtitle:      "Lazy Perfectionist is a bedroom instrumental prog project based in Hong Kong. It began as a side hobby during university days.",
		Author:        author,
		PublishedDate: now.UTC(),
		ReadTime:      "5 min read",
		Link:          "https://medium.com/@lazyperfectist",
		Thumbnail:     DefaultThumbnail,
		Tags:          []string{"music", "hong-kong", "instrumental"},
		Claps:         50,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
