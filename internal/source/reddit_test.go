package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelpipe/internal/config"
	"reelpipe/internal/model"
)

func redditTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/access_token":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "cid" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
		case r.URL.Path == "/r/golang/new.json":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			fmt.Fprint(w, `{"data":{"children":[
				{"data":{"id":"p1","title":"Go generics in practice","selftext":"**Bold** and a [link](https://x.com) here.\n\n\n# Heading\nBody about python coding.","author":"gopher","permalink":"/r/golang/comments/p1/post/","subreddit":"golang","created_utc":1704100000}},
				{"data":{"id":"p2","title":"Deleted post","selftext":"","author":"","permalink":"/r/golang/comments/p2/post/","subreddit":"golang","created_utc":1704000000}}
			]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testRedditClient(srv *httptest.Server) *RedditClient {
	return NewRedditClient(config.RedditConfig{
		ClientID:          "cid",
		ClientSecret:      "secret",
		UserAgent:         "test/1.0",
		BaseURL:           srv.URL,
		AuthURL:           srv.URL + "/api/v1/access_token",
		RequestsPerMinute: 600,
	})
}

func TestRedditFetch(t *testing.T) {
	srv := redditTestServer(t)
	defer srv.Close()

	a := &RedditAdapter{Client: testRedditClient(srv), Subreddit: "golang", MaxPosts: 5}
	items, err := a.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	it := items[0]
	if it.SourceType != model.SourceRedditPost || it.SourceName != "r/golang" {
		t.Errorf("source fields wrong: %+v", it)
	}
	if want := "https://reddit.com/r/golang/comments/p1/post/"; it.Link != want || it.SourceURL != want {
		t.Errorf("link = %q, want %q", it.Link, want)
	}
	if strings.Contains(it.Content, "**") || strings.Contains(it.Content, "](") || strings.Contains(it.Content, "#") {
		t.Errorf("markdown not stripped: %q", it.Content)
	}
	if !strings.Contains(it.Content, "Bold and a link here.") {
		t.Errorf("cleaned content lost text: %q", it.Content)
	}
	if want := model.Fingerprint(it.Title, it.Link, it.Description); it.ID != want {
		t.Errorf("ID = %s, want fingerprint over title/link/description", it.ID)
	}
	if it.PublishedAt.Unix() != 1704100000 {
		t.Errorf("published = %v", it.PublishedAt)
	}

	if items[1].Author != "[deleted]" {
		t.Errorf("empty author = %q, want [deleted]", items[1].Author)
	}
}

func TestCleanMarkdown(t *testing.T) {
	in := "# Title\n\n\n**bold** *em* [text](https://a.b)\n\n\n\nend"
	got := cleanMarkdown(in)
	want := "Title\n\nbold em text\n\nend"
	if got != want {
		t.Errorf("cleanMarkdown = %q, want %q", got, want)
	}
	if cleanMarkdown("") != "" {
		t.Errorf("empty input must stay empty")
	}
}

func TestTruncateRunes(t *testing.T) {
	long := strings.Repeat("é", 600)
	got := truncateRunes(long, 500)
	if want := 503; len([]rune(got)) != want {
		t.Errorf("truncated length = %d runes, want %d (500 + ellipsis)", len([]rune(got)), want)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis")
	}
	if short := truncateRunes("short", 500); short != "short" {
		t.Errorf("short strings must pass through, got %q", short)
	}
}

func TestExtractTags(t *testing.T) {
	tags := extractTags("A new GPT tool for Python coding from OpenAI")
	set := map[string]bool{}
	for _, tag := range tags {
		set[tag] = true
	}
	for _, want := range []string{"Gpt", "Openai", "Python", "Coding"} {
		if !set[want] {
			t.Errorf("missing tag %q in %v", want, tags)
		}
	}
	if len(extractTags("nothing matching at all")) != 0 {
		t.Errorf("expected no tags for unrelated text")
	}
}
