package config

import "time"

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OpenAIConfig holds the evaluation service credentials.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // optional
}

// RSSConfig controls the RSS source adapter.
type RSSConfig struct {
	MaxItemsPerFeed int    `mapstructure:"max_items_per_feed"`
	FetchTimeout    string `mapstructure:"fetch_timeout"` // duration string, e.g., "30s"
}

// RedditConfig controls the Reddit source adapter.
type RedditConfig struct {
	ClientID          string `mapstructure:"client_id"`
	ClientSecret      string `mapstructure:"client_secret"`
	UserAgent         string `mapstructure:"user_agent"`
	BaseURL           string `mapstructure:"base_url"`
	AuthURL           string `mapstructure:"auth_url"`
	MaxPostsPerSub    int    `mapstructure:"max_posts_per_subreddit"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// DataSources groups the source adapters and their default source lists.
// Feed URLs and subreddits here are fallbacks; the settings collection in
// the store overrides them per cycle.
type DataSources struct {
	Feeds      []string     `mapstructure:"feeds"`
	Subreddits []string     `mapstructure:"subreddits"`
	RSS        RSSConfig    `mapstructure:"rss"`
	Reddit     RedditConfig `mapstructure:"reddit"`
}

// PipelineConfig controls the curation cycle and the evaluation retry protocol.
type PipelineConfig struct {
	Interval          string `mapstructure:"interval"`           // duration string, e.g., "1h"
	RelevantThreshold int    `mapstructure:"relevant_threshold"` // inclusive 0..100
	ReelsPerItem      int    `mapstructure:"reels_per_item"`     // artifacts per approved item
	MaxAttempts       int    `mapstructure:"max_attempts"`       // evaluation call attempts
	CallSpacing       string `mapstructure:"call_spacing"`       // min spacing between external calls
	DefaultRetryWait  string `mapstructure:"default_retry_wait"` // used when no retry hint is present
	RetryMargin       string `mapstructure:"retry_margin"`       // added on top of advertised retry-after
	StoreRetries      int    `mapstructure:"store_retries"`      // bounded persistence retries
}

// Config is the top-level configuration structure.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Redis    RedisConfig    `mapstructure:"redis"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Sources  DataSources    `mapstructure:"sources"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Sources.RSS.MaxItemsPerFeed == 0 {
		c.Sources.RSS.MaxItemsPerFeed = 20
	}
	if c.Sources.RSS.FetchTimeout == "" {
		c.Sources.RSS.FetchTimeout = "30s"
	}
	if c.Sources.Reddit.UserAgent == "" {
		c.Sources.Reddit.UserAgent = "reelpipe/1.0"
	}
	if c.Sources.Reddit.BaseURL == "" {
		c.Sources.Reddit.BaseURL = "https://oauth.reddit.com"
	}
	if c.Sources.Reddit.AuthURL == "" {
		c.Sources.Reddit.AuthURL = "https://www.reddit.com/api/v1/access_token"
	}
	if c.Sources.Reddit.MaxPostsPerSub == 0 {
		c.Sources.Reddit.MaxPostsPerSub = 5
	}
	if c.Sources.Reddit.RequestsPerMinute == 0 {
		c.Sources.Reddit.RequestsPerMinute = 60
	}
	if c.Pipeline.Interval == "" {
		c.Pipeline.Interval = "1h"
	}
	if c.Pipeline.RelevantThreshold == 0 {
		c.Pipeline.RelevantThreshold = 75
	}
	if c.Pipeline.ReelsPerItem == 0 {
		c.Pipeline.ReelsPerItem = 2
	}
	if c.Pipeline.MaxAttempts == 0 {
		c.Pipeline.MaxAttempts = 3
	}
	if c.Pipeline.CallSpacing == "" {
		c.Pipeline.CallSpacing = "4s" // 15 calls/minute
	}
	if c.Pipeline.DefaultRetryWait == "" {
		c.Pipeline.DefaultRetryWait = "60s"
	}
	if c.Pipeline.RetryMargin == "" {
		c.Pipeline.RetryMargin = "5s"
	}
	if c.Pipeline.StoreRetries == 0 {
		c.Pipeline.StoreRetries = 3
	}
}

// Duration parses a duration field, falling back to def on empty or bad input.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
