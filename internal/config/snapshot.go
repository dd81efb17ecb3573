package config

import (
	"encoding/json"
	"strconv"
)

// Settings hash field names in the store's settings collection.
const (
	SettingFeeds             = "feeds"
	SettingSubreddits        = "subreddits"
	SettingScorePrompt       = "score_prompt"
	SettingReelPrompt        = "reel_prompt"
	SettingRelevantThreshold = "relevant_threshold"
	SettingReelsPerItem      = "reels_per_item"
)

// Snapshot is the curation configuration for one cycle: the file config
// overlaid with whatever the settings collection holds at cycle start.
// It is immutable for the duration of the cycle.
type Snapshot struct {
	Feeds             []string
	Subreddits        []string
	ScorePrompt       string
	ReelPrompt        string
	RelevantThreshold int
	ReelsPerItem      int
}

// SnapshotFrom merges stored settings over the file configuration.
// List fields are JSON arrays in the hash; malformed values fall back to
// the file config so a bad settings write cannot stall curation.
func SnapshotFrom(settings map[string]string, base Config) Snapshot {
	snap := Snapshot{
		Feeds:             base.Sources.Feeds,
		Subreddits:        base.Sources.Subreddits,
		RelevantThreshold: base.Pipeline.RelevantThreshold,
		ReelsPerItem:      base.Pipeline.ReelsPerItem,
	}
	if raw, ok := settings[SettingFeeds]; ok {
		if list, err := decodeList(raw); err == nil {
			snap.Feeds = list
		}
	}
	if raw, ok := settings[SettingSubreddits]; ok {
		if list, err := decodeList(raw); err == nil {
			snap.Subreddits = list
		}
	}
	if p, ok := settings[SettingScorePrompt]; ok && p != "" {
		snap.ScorePrompt = p
	}
	if p, ok := settings[SettingReelPrompt]; ok && p != "" {
		snap.ReelPrompt = p
	}
	if raw, ok := settings[SettingRelevantThreshold]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 100 {
			snap.RelevantThreshold = n
		}
	}
	if raw, ok := settings[SettingReelsPerItem]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			snap.ReelsPerItem = n
		}
	}
	return snap
}

func decodeList(raw string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}
