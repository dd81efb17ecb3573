package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelpipe/internal/model"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<link>https://example.com</link>
<item>
  <title>Oldest</title>
  <link>https://example.com/1</link>
  <description>first post</description>
  <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
  <category>ai</category>
  <category>tools</category>
</item>
<item>
  <title>Newest</title>
  <link>https://example.com/3</link>
  <description>third post</description>
  <pubDate>Wed, 03 Jan 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Middle</title>
  <link>https://example.com/2</link>
  <description>second post</description>
  <pubDate>Tue, 02 Jan 2024 10:00:00 GMT</pubDate>
</item>
</channel>
</rss>`

func TestRSSFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	a := NewRSS(srv.URL, 2, 5*time.Second)
	items, err := a.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items after cap, got %d", len(items))
	}
	if items[0].Title != "Newest" || items[1].Title != "Middle" {
		t.Fatalf("expected newest-first order, got %q then %q", items[0].Title, items[1].Title)
	}

	it := items[0]
	if it.SourceType != model.SourceRSSFeed {
		t.Errorf("source type = %s", it.SourceType)
	}
	if it.Link != "https://example.com/3" || it.Description != "third post" {
		t.Errorf("mapping wrong: link=%q desc=%q", it.Link, it.Description)
	}
	if want := model.Fingerprint(it.Title, it.Link, it.Description); it.ID != want {
		t.Errorf("ID = %s, want fingerprint %s", it.ID, want)
	}
	if it.PublishedAt.IsZero() {
		t.Errorf("published time not parsed")
	}
	if it.SourceURL != srv.URL {
		t.Errorf("SourceURL = %q, want feed URL", it.SourceURL)
	}
}

func TestRSSAdapterID(t *testing.T) {
	a := NewRSS("https://example.com/feed.xml", 5, time.Second)
	if a.ID() != "rss:https://example.com/feed.xml" {
		t.Errorf("ID() = %q", a.ID())
	}
}

func TestEntryTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	a := NewRSS(srv.URL, 10, 5*time.Second)
	items, err := a.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	var oldest *model.CanonicalItem
	for i := range items {
		if items[i].Title == "Oldest" {
			oldest = &items[i]
		}
	}
	if oldest == nil {
		t.Fatalf("oldest entry missing")
	}
	if len(oldest.Tags) != 2 || oldest.Tags[0] != "ai" {
		t.Errorf("tags = %v, want categories from the feed", oldest.Tags)
	}
}
