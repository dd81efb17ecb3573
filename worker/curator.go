package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelpipe/internal/model"
	"reelpipe/internal/source"
	"reelpipe/internal/storage"
)

// ItemStore is the slice of the persistent store the curator needs.
type ItemStore interface {
	HasItem(ctx context.Context, fp string) (bool, error)
	PutItem(ctx context.Context, item model.CanonicalItem) error
	Cursor(ctx context.Context, sourceID string) (time.Time, error)
	AdvanceCursor(ctx context.Context, sourceID string, ts time.Time, processed int) error
}

// Scorer evaluates one item's topical relevance through the external service.
type Scorer interface {
	Score(ctx context.Context, item model.CanonicalItem) (int, error)
}

// CuratorStats summarizes one source's step of a cycle.
type CuratorStats struct {
	Considered int
	Stored     int
	Duplicates int
	Old        int
	Failed     int // scoring failures recorded with the sentinel
}

// Curator runs the ingest step for one source: fetch since the watermark,
// drop already-seen fingerprints, score, persist, then advance the watermark.
type Curator struct {
	Store        ItemStore
	Scorer       Scorer // nil leaves items unscored (state stays ingested)
	ScoringModel string
	Threshold    int
	StoreRetries int
}

// Run processes one source. The watermark is advanced to the maximum
// published timestamp among all entries considered, and only after every
// surviving entry has been stored; a crash in between is safe to retry
// because re-storing a known fingerprint is a no-op.
func (c *Curator) Run(ctx context.Context, adapter source.Adapter) (CuratorStats, error) {
	var stats CuratorStats
	since, err := c.Store.Cursor(ctx, adapter.ID())
	if err != nil {
		return stats, fmt.Errorf("cursor %s: %w", adapter.ID(), err)
	}
	items, err := adapter.Fetch(ctx, since)
	if err != nil {
		return stats, err
	}

	var maxSeen time.Time
	interrupted := false
	for _, item := range items {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		stats.Considered++
		if item.PublishedAt.After(maxSeen) {
			maxSeen = item.PublishedAt
		}
		// Only entries strictly after the watermark are candidates.
		// Undated entries are assumed new.
		if !item.PublishedAt.IsZero() && !item.PublishedAt.After(since) {
			stats.Old++
			continue
		}
		exists, err := c.Store.HasItem(ctx, item.ID)
		if err != nil {
			slog.Error("curator: fingerprint check failed, skipping item", "id", item.ID, "error", err)
			continue
		}
		if exists {
			stats.Duplicates++
			continue
		}
		it := item
		if !c.score(ctx, &it) {
			stats.Failed++
		}
		err = storage.WithRetry(ctx, c.StoreRetries, "put item", func() error {
			return c.Store.PutItem(ctx, it)
		})
		if err != nil {
			slog.Error("curator: store item failed, skipping", "id", it.ID, "error", err)
			continue
		}
		stats.Stored++
	}

	// An interrupted pass never advances the watermark: entries after the
	// break point were not considered.
	if !interrupted && !maxSeen.IsZero() {
		err = storage.WithRetry(ctx, c.StoreRetries, "advance cursor", func() error {
			return c.Store.AdvanceCursor(ctx, adapter.ID(), maxSeen, stats.Stored)
		})
		if err != nil {
			return stats, fmt.Errorf("advance cursor %s: %w", adapter.ID(), err)
		}
	}
	return stats, nil
}

// score evaluates the item in place and reports whether scoring succeeded.
// Exhausted retries record the failure sentinel so API outages remain
// visible downstream instead of silently dropping content.
func (c *Curator) score(ctx context.Context, item *model.CanonicalItem) bool {
	if c.Scorer == nil {
		return true
	}
	raw, err := c.Scorer.Score(ctx, *item)
	item.ProcessedAt = time.Now().UTC()
	item.EvaluationModel = c.ScoringModel
	if err != nil {
		slog.Warn("curator: scoring failed, recording sentinel", "id", item.ID, "error", err)
		item.RelevanceScore = model.ScoreFailed
		item.IsRelevant = false
		return false
	}
	item.RelevanceScore = model.ClampScore(raw)
	item.IsRelevant = model.Relevant(item.RelevanceScore, c.Threshold)
	return true
}
