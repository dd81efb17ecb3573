package worker

import (
	"context"
	"errors"
	"testing"

	"reelpipe/internal/model"
)

// fakeGenStore is an in-memory GenerationStore.
type fakeGenStore struct {
	pending  []model.CanonicalItem
	batches  map[string][]model.Artifact
	batchErr error
}

func newFakeGenStore(pending ...model.CanonicalItem) *fakeGenStore {
	return &fakeGenStore{pending: pending, batches: map[string][]model.Artifact{}}
}

func (s *fakeGenStore) PendingGeneration(ctx context.Context) ([]model.CanonicalItem, error) {
	return s.pending, nil
}

func (s *fakeGenStore) PutArtifactBatch(ctx context.Context, parent model.CanonicalItem, artifacts []model.Artifact) error {
	if s.batchErr != nil {
		return s.batchErr
	}
	s.batches[parent.ID] = artifacts
	return nil
}

type generatorFunc func(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error)

func (f generatorFunc) Generate(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error) {
	return f(ctx, item, n)
}

func approvedItem(id string) model.CanonicalItem {
	return model.CanonicalItem{ID: id, HumanApproved: true}
}

func fullBatch(item model.CanonicalItem, n int) []model.Artifact {
	out := make([]model.Artifact, n)
	for i := range out {
		out[i] = model.Artifact{ID: item.ID + "-" + string(rune('a'+i)), ParentItemID: item.ID}
	}
	return out
}

func TestGeneratorPassProducesFullBatches(t *testing.T) {
	store := newFakeGenStore(approvedItem("one"), approvedItem("two"))
	g := &GeneratorPass{
		Store:     store,
		Generator: generatorFunc(func(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error) { return fullBatch(item, n), nil }),
		PerItem:   2,
	}
	n, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 4 {
		t.Fatalf("generated %d artifacts, want 4", n)
	}
	for _, id := range []string{"one", "two"} {
		if len(store.batches[id]) != 2 {
			t.Errorf("item %s has %d artifacts, want 2", id, len(store.batches[id]))
		}
	}
}

func TestGeneratorPassRejectsShortBatch(t *testing.T) {
	store := newFakeGenStore(approvedItem("one"))
	g := &GeneratorPass{
		Store: store,
		Generator: generatorFunc(func(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error) {
			return fullBatch(item, n-1), nil
		}),
		PerItem: 2,
	}
	n, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 0 || len(store.batches) != 0 {
		t.Fatalf("short batch was persisted: n=%d batches=%v", n, store.batches)
	}
}

func TestGeneratorPassFailureLeavesItemPending(t *testing.T) {
	store := newFakeGenStore(approvedItem("one"), approvedItem("two"))
	g := &GeneratorPass{
		Store: store,
		Generator: generatorFunc(func(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error) {
			if item.ID == "one" {
				return nil, errors.New("attempts exhausted")
			}
			return fullBatch(item, n), nil
		}),
		PerItem: 2,
	}
	n, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 2 {
		t.Fatalf("generated %d, want 2 (failed item skipped)", n)
	}
	if _, ok := store.batches["one"]; ok {
		t.Errorf("failed item must not get a batch")
	}
	if len(store.batches["two"]) != 2 {
		t.Errorf("healthy item was not processed")
	}
}

func TestGeneratorPassRechecksPredicate(t *testing.T) {
	stale := approvedItem("stale")
	stale.ArtifactsGenerated = true
	revoked := model.CanonicalItem{ID: "revoked"} // approval withdrawn after indexing
	store := newFakeGenStore(stale, revoked)
	g := &GeneratorPass{
		Store: store,
		Generator: generatorFunc(func(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error) {
			t.Fatalf("generator called for item %s failing the predicate", item.ID)
			return nil, nil
		}),
		PerItem: 2,
	}
	n, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 0 {
		t.Fatalf("generated %d, want 0", n)
	}
}

func TestGeneratorPassStopsOnCancel(t *testing.T) {
	store := newFakeGenStore(approvedItem("one"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := &GeneratorPass{
		Store: store,
		Generator: generatorFunc(func(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error) {
			return fullBatch(item, n), nil
		}),
		PerItem: 2,
	}
	n, err := g.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n != 0 || len(store.batches) != 0 {
		t.Fatalf("work done after cancellation: n=%d", n)
	}
}
