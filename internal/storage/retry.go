package storage

import (
	"context"
	"log/slog"
	"time"
)

// WithRetry runs fn up to attempts times with a short growing pause between
// tries. Persistence hiccups for one record are retried here and, if they
// persist, surfaced to the caller which skips that record and moves on.
func WithRetry(ctx context.Context, attempts int, op string, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		slog.Warn("storage: retrying operation", "op", op, "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return err
}
