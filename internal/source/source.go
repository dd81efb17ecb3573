// Package source fetches entries from external feeds and maps them into the
// canonical item model.
package source

import (
	"context"
	"time"

	"reelpipe/internal/model"
)

// Adapter pulls one configured source. Implementations cap the number of
// items per fetch (newest-first) and compute fingerprints the same way
// regardless of source type.
type Adapter interface {
	// ID identifies the source for its watermark cursor.
	ID() string
	// Fetch returns canonical items from the source. since is advisory; the
	// strict watermark filter is applied by the caller.
	Fetch(ctx context.Context, since time.Time) ([]model.CanonicalItem, error)
}
