package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// SourceType identifies the kind of external source an item came from.
type SourceType string

const (
	SourceRSSFeed    SourceType = "rss_feed"
	SourceRedditPost SourceType = "reddit_post"
)

// ScoreFailed is the reserved relevance score recorded when evaluation
// exhausted its retries. It is outside the valid 0..100 range so failed
// calls stay distinguishable from low-scoring content.
const ScoreFailed = -1

// CanonicalItem is the normalized content record shared by all source types.
type CanonicalItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	Content     string     `json:"content,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	SourceType  SourceType `json:"source_type"`

	SourceURL    string   `json:"source_url"`
	SourceDomain string   `json:"source_domain"`
	SourceName   string   `json:"source_name"`
	Tags         []string `json:"tags,omitempty"`

	RelevanceScore  int    `json:"relevance_score"`
	IsRelevant      bool   `json:"is_relevant"`
	EvaluationModel string `json:"evaluation_model,omitempty"`

	HumanApproved      bool `json:"human_approved"`
	ArtifactsGenerated bool `json:"artifacts_generated"`

	CreatedAt   time.Time `json:"created_at"`
	ProcessedAt time.Time `json:"processed_at,omitempty"`
}

// Fingerprint computes the dedup key for an item: an md5 hex digest over
// title, link and description joined with "|". The inputs are used verbatim;
// entries differing only in whitespace hash differently.
func Fingerprint(title, link, description string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s", title, link, description)))
	return hex.EncodeToString(sum[:])
}

// ClampScore bounds a raw score into the valid 0..100 range.
// The failure sentinel is passed through untouched.
func ClampScore(score int) int {
	if score == ScoreFailed {
		return ScoreFailed
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Relevant reports whether a score meets the configured threshold.
// The boundary is inclusive; the failure sentinel is never relevant.
func Relevant(score, threshold int) bool {
	if score == ScoreFailed {
		return false
	}
	return score >= threshold
}

// ItemState is the lifecycle state derived from an item's persisted fields.
type ItemState string

const (
	StateIngested           ItemState = "ingested"
	StateFailedScoring      ItemState = "failed_scoring"
	StateAwaitingApproval   ItemState = "awaiting_approval"
	StateApproved           ItemState = "approved"
	StateArtifactsGenerated ItemState = "artifacts_generated"
)

// State derives the lifecycle state. "scored" is transient: an evaluated item
// lands directly in awaiting_approval or failed_scoring.
func (it CanonicalItem) State() ItemState {
	switch {
	case it.ArtifactsGenerated:
		return StateArtifactsGenerated
	case it.HumanApproved:
		return StateApproved
	case it.ProcessedAt.IsZero():
		return StateIngested
	case it.RelevanceScore == ScoreFailed:
		return StateFailedScoring
	default:
		return StateAwaitingApproval
	}
}
