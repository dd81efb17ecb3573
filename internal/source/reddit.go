package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"reelpipe/internal/config"
	"reelpipe/internal/model"

	"golang.org/x/time/rate"
)

// RedditClient is a minimal Reddit API client using application-only OAuth.
// It rate-limits its own requests so the pipeline stays inside Reddit's
// documented call ceiling.
type RedditClient struct {
	baseURL      string
	authURL      string
	clientID     string
	clientSecret string
	userAgent    string
	client       *http.Client
	limiter      *rate.Limiter

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewRedditClient(cfg config.RedditConfig) *RedditClient {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	return &RedditClient{
		baseURL:      cfg.BaseURL,
		authURL:      cfg.AuthURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userAgent:    cfg.UserAgent,
		client:       &http.Client{Timeout: 15 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

func (c *RedditClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp.Add(-time.Minute)) {
		return c.token, nil
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("reddit: auth status %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("reddit: empty access token")
	}
	c.token = body.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.token, nil
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Permalink  string  `json:"permalink"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
}

// NewPosts fetches the newest posts of a subreddit, newest first.
// API: GET /r/{subreddit}/new.json?limit={limit}
func (c *RedditClient) NewPosts(ctx context.Context, subreddit string, limit int) ([]redditPost, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tok, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/r/%s/new.json", c.baseURL, url.PathEscape(subreddit))
	q := url.Values{"limit": {fmt.Sprintf("%d", limit)}, "raw_json": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reddit: status %d", resp.StatusCode)
	}
	var listing struct {
		Data struct {
			Children []struct {
				Data redditPost `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, err
	}
	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, ch := range listing.Data.Children {
		posts = append(posts, ch.Data)
	}
	return posts, nil
}

// RedditAdapter fetches one subreddit.
type RedditAdapter struct {
	Client    *RedditClient
	Subreddit string
	MaxPosts  int
}

func (a *RedditAdapter) ID() string { return "reddit:" + a.Subreddit }

func (a *RedditAdapter) Fetch(ctx context.Context, since time.Time) ([]model.CanonicalItem, error) {
	limit := a.MaxPosts
	if limit <= 0 {
		limit = 5
	}
	posts, err := a.Client.NewPosts(ctx, a.Subreddit, limit)
	if err != nil {
		return nil, fmt.Errorf("reddit: fetch r/%s: %w", a.Subreddit, err)
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	now := time.Now().UTC()
	out := make([]model.CanonicalItem, 0, len(posts))
	for _, p := range posts {
		content := cleanMarkdown(p.Selftext)
		description := truncateRunes(content, 500)
		link := "https://reddit.com" + p.Permalink
		author := p.Author
		if author == "" {
			author = "[deleted]"
		}
		out = append(out, model.CanonicalItem{
			ID:           model.Fingerprint(p.Title, link, description),
			Title:        p.Title,
			Link:         link,
			Description:  description,
			Content:      content,
			Author:       author,
			PublishedAt:  time.Unix(int64(p.CreatedUTC), 0).UTC(),
			SourceType:   model.SourceRedditPost,
			SourceURL:    link,
			SourceDomain: "reddit.com",
			SourceName:   "r/" + a.Subreddit,
			Tags:         extractTags(p.Title + " " + content),
			CreatedAt:    now,
		})
	}
	return out, nil
}

var (
	mdLink    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdBold    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	mdItalic  = regexp.MustCompile(`\*([^*]+)\*`)
	mdHeader  = regexp.MustCompile(`(?m)^#+\s*`)
	blankRuns = regexp.MustCompile(`\n\s*\n`)
)

// cleanMarkdown strips the markdown constructs common in selftext posts,
// leaving plain text for evaluation.
func cleanMarkdown(text string) string {
	if text == "" {
		return ""
	}
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdBold.ReplaceAllString(text, "$1")
	text = mdItalic.ReplaceAllString(text, "$1")
	text = mdHeader.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// techKeywords drives cheap tag extraction from post text.
var techKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "ml", "deep learning",
	"neural network", "gpt", "chatgpt", "openai", "google", "microsoft",
	"programming", "coding", "python", "javascript", "react", "vue",
	"startup", "tech", "technology", "innovation", "automation",
}

func extractTags(text string) []string {
	lower := strings.ToLower(text)
	seen := map[string]struct{}{}
	var tags []string
	for _, kw := range techKeywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		tag := titleCase(kw)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == 10 {
			break
		}
	}
	return tags
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
