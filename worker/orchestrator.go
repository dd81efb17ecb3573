package worker

import (
	"context"
	"log/slog"
	"time"

	"reelpipe/internal/ai"
	"reelpipe/internal/config"
	"reelpipe/internal/source"
)

// Store combines everything the orchestrator touches per cycle.
type Store interface {
	ItemStore
	GenerationStore
	Settings(ctx context.Context) (map[string]string, error)
}

// Orchestrator drives the repeating curation cycle: every source's adapter,
// dedup and scoring in sequence, then a generation pass over approved items.
// One cycle at a time; a cycle that outlives its interval delays the next
// one rather than running concurrently with it.
type Orchestrator struct {
	Cfg      config.Config
	Store    Store
	Interval time.Duration

	// NewSession binds the evaluation client to a cycle's prompt snapshot.
	// nil disables scoring and generation.
	NewSession func(scorePrompt, reelPrompt string) (Scorer, Generator)
	// NewAdapters builds the cycle's source adapters from the snapshot.
	NewAdapters  func(snap config.Snapshot) []source.Adapter
	ScoringModel string
}

// NewOrchestrator wires the default production orchestrator. aiClient and
// reddit may be nil; the corresponding capability is then disabled.
func NewOrchestrator(cfg config.Config, store Store, aiClient *ai.Client, reddit *source.RedditClient) *Orchestrator {
	o := &Orchestrator{
		Cfg:      cfg,
		Store:    store,
		Interval: config.Duration(cfg.Pipeline.Interval, time.Hour),
	}
	if aiClient != nil {
		o.ScoringModel = aiClient.Model()
		o.NewSession = func(scorePrompt, reelPrompt string) (Scorer, Generator) {
			s := aiClient.Session(scorePrompt, reelPrompt)
			return s, s
		}
	}
	o.NewAdapters = func(snap config.Snapshot) []source.Adapter {
		var ads []source.Adapter
		timeout := config.Duration(cfg.Sources.RSS.FetchTimeout, 30*time.Second)
		for _, u := range snap.Feeds {
			ads = append(ads, source.NewRSS(u, cfg.Sources.RSS.MaxItemsPerFeed, timeout))
		}
		if reddit != nil {
			for _, sub := range snap.Subreddits {
				ads = append(ads, &source.RedditAdapter{
					Client:    reddit,
					Subreddit: sub,
					MaxPosts:  cfg.Sources.Reddit.MaxPostsPerSub,
				})
			}
		}
		return ads
	}
	return o
}

// Start runs one cycle immediately, then one per interval until the context
// is cancelled. RunCycle executes synchronously in this loop, so cycles
// never overlap.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.Interval <= 0 {
		o.Interval = time.Hour
	}
	o.RunCycle(ctx)

	t := time.NewTicker(o.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			o.RunCycle(ctx)
		}
	}
}

// RunCycle executes one full pass: settings snapshot, sources, generation.
// Failures are isolated to the smallest unit (one item, one source); only
// context cancellation stops the cycle early.
func (o *Orchestrator) RunCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	slog.Info("orchestrator: cycle started")

	settings, err := o.Store.Settings(ctx)
	if err != nil {
		slog.Warn("orchestrator: settings unavailable, using file config", "error", err)
		settings = nil
	}
	snap := config.SnapshotFrom(settings, o.Cfg)

	var scorer Scorer
	var generator Generator
	if o.NewSession != nil {
		scorer, generator = o.NewSession(snap.ScorePrompt, snap.ReelPrompt)
	}

	curator := &Curator{
		Store:        o.Store,
		Scorer:       scorer,
		ScoringModel: o.ScoringModel,
		Threshold:    snap.RelevantThreshold,
		StoreRetries: o.Cfg.Pipeline.StoreRetries,
	}
	for _, adapter := range o.NewAdapters(snap) {
		if ctx.Err() != nil {
			slog.Info("orchestrator: shutdown requested, stopping cycle")
			return
		}
		stats, err := curator.Run(ctx, adapter)
		if err != nil {
			slog.Error("orchestrator: source failed", "source", adapter.ID(), "error", err)
			continue
		}
		slog.Info("orchestrator: source completed", "source", adapter.ID(),
			"considered", stats.Considered, "stored", stats.Stored,
			"duplicates", stats.Duplicates, "old", stats.Old, "failed_scoring", stats.Failed)
	}

	if generator != nil && ctx.Err() == nil {
		pass := &GeneratorPass{
			Store:        o.Store,
			Generator:    generator,
			PerItem:      snap.ReelsPerItem,
			StoreRetries: o.Cfg.Pipeline.StoreRetries,
		}
		n, err := pass.Run(ctx)
		if err != nil {
			slog.Error("orchestrator: generation pass stopped", "artifacts", n, "error", err)
		} else {
			slog.Info("orchestrator: generation pass completed", "artifacts", n)
		}
	}

	slog.Info("orchestrator: cycle completed", "took", time.Since(start).Round(time.Millisecond))
}
