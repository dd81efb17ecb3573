package worker

import (
	"context"
	"log/slog"

	"reelpipe/internal/model"
	"reelpipe/internal/storage"
)

// GenerationStore is the slice of the persistent store the generator needs.
type GenerationStore interface {
	PendingGeneration(ctx context.Context) ([]model.CanonicalItem, error)
	PutArtifactBatch(ctx context.Context, parent model.CanonicalItem, artifacts []model.Artifact) error
}

// Generator produces exactly n artifact concepts for an approved item.
type Generator interface {
	Generate(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error)
}

// GeneratorPass scans for approved items without artifacts and produces one
// full batch per item. A failed item stays pending and is retried next cycle.
type GeneratorPass struct {
	Store        GenerationStore
	Generator    Generator
	PerItem      int
	StoreRetries int
}

// Run executes one generation pass and returns the number of artifacts
// persisted. It stops between items when the context is cancelled.
func (g *GeneratorPass) Run(ctx context.Context) (int, error) {
	items, err := g.Store.PendingGeneration(ctx)
	if err != nil {
		return 0, err
	}
	n := g.PerItem
	if n <= 0 {
		n = 2
	}
	generated := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return generated, ctx.Err()
		}
		// Re-check the predicate; the index may lag operator edits.
		if !item.HumanApproved || item.ArtifactsGenerated {
			continue
		}
		artifacts, err := g.Generator.Generate(ctx, item, n)
		if err != nil {
			slog.Error("generator: generation failed", "id", item.ID, "error", err)
			continue
		}
		if len(artifacts) != n {
			// Partial batches are rejected whole so artifacts_generated=true
			// always implies the full intended batch exists.
			slog.Error("generator: short batch rejected", "id", item.ID, "got", len(artifacts), "want", n)
			continue
		}
		err = storage.WithRetry(ctx, g.StoreRetries, "put artifact batch", func() error {
			return g.Store.PutArtifactBatch(ctx, item, artifacts)
		})
		if err != nil {
			slog.Error("generator: persist batch failed", "id", item.ID, "error", err)
			continue
		}
		generated += n
		slog.Info("generator: artifacts created", "id", item.ID, "count", n)
	}
	return generated, nil
}
