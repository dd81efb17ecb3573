package source

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"reelpipe/internal/model"

	"github.com/mmcdole/gofeed"
)

// RSSAdapter fetches one RSS/Atom feed.
type RSSAdapter struct {
	FeedURL  string
	MaxItems int
	Timeout  time.Duration

	parser *gofeed.Parser
}

func NewRSS(feedURL string, maxItems int, timeout time.Duration) *RSSAdapter {
	if maxItems <= 0 {
		maxItems = 20
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RSSAdapter{
		FeedURL:  feedURL,
		MaxItems: maxItems,
		Timeout:  timeout,
		parser:   gofeed.NewParser(),
	}
}

func (a *RSSAdapter) ID() string { return "rss:" + a.FeedURL }

// Fetch parses the feed and returns up to MaxItems entries, newest first.
// RSS has no server-side window, so since is unused here.
func (a *RSSAdapter) Fetch(ctx context.Context, since time.Time) ([]model.CanonicalItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	feed, err := a.parser.ParseURLWithContext(a.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rss: parse %s: %w", a.FeedURL, err)
	}

	entries := make([]*gofeed.Item, len(feed.Items))
	copy(entries, feed.Items)
	sort.SliceStable(entries, func(i, j int) bool {
		return entryTime(entries[i]).After(entryTime(entries[j]))
	})
	if len(entries) > a.MaxItems {
		entries = entries[:a.MaxItems]
	}

	domain := feedDomain(a.FeedURL)
	now := time.Now().UTC()
	out := make([]model.CanonicalItem, 0, len(entries))
	for _, e := range entries {
		var published time.Time
		if e.PublishedParsed != nil {
			published = e.PublishedParsed.UTC()
		}
		var author string
		if e.Author != nil {
			author = e.Author.Name
		}
		out = append(out, model.CanonicalItem{
			ID:           model.Fingerprint(e.Title, e.Link, e.Description),
			Title:        e.Title,
			Link:         e.Link,
			Description:  e.Description,
			Content:      e.Content,
			Author:       author,
			PublishedAt:  published,
			SourceType:   model.SourceRSSFeed,
			SourceURL:    a.FeedURL,
			SourceDomain: domain,
			SourceName:   "RSS Feed - " + domain,
			Tags:         entryTags(e),
			CreatedAt:    now,
		})
	}
	return out, nil
}

// entryTime orders entries; undated entries sort newest so they survive the
// per-cycle cap and are treated as fresh downstream.
func entryTime(e *gofeed.Item) time.Time {
	if e.PublishedParsed == nil {
		return time.Now().UTC()
	}
	return e.PublishedParsed.UTC()
}

func entryTags(e *gofeed.Item) []string {
	if len(e.Categories) == 0 {
		return nil
	}
	tags := make([]string, 0, len(e.Categories))
	tags = append(tags, e.Categories...)
	if len(tags) > 10 {
		tags = tags[:10]
	}
	return tags
}

func feedDomain(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
