package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reelpipe/internal/ai"
	"reelpipe/internal/config"
	"reelpipe/internal/redisclient"
	"reelpipe/internal/source"
	"reelpipe/internal/storage"
	"reelpipe/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the curation pipeline loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		orc := worker.NewOrchestrator(cfg, store, buildAIClient(cfg), buildRedditClient(cfg))

		mgr := worker.NewManager(orc)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Shutdown stops the loop before the next unit of work; in-flight
		// item work finishes its current attempt.
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		return mgr.Start(ctx)
	},
}

func buildAIClient(cfg config.Config) *ai.Client {
	if cfg.OpenAI.APIKey == "" {
		slog.Warn("no evaluation API key configured; scoring and generation disabled")
		return nil
	}
	retrier := ai.NewRetrier(
		cfg.Pipeline.MaxAttempts,
		config.Duration(cfg.Pipeline.CallSpacing, 4*time.Second),
		config.Duration(cfg.Pipeline.DefaultRetryWait, time.Minute),
		config.Duration(cfg.Pipeline.RetryMargin, 5*time.Second),
	)
	return ai.New(ai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
		Retrier: retrier,
	})
}

func buildRedditClient(cfg config.Config) *source.RedditClient {
	if cfg.Sources.Reddit.ClientID == "" || cfg.Sources.Reddit.ClientSecret == "" {
		slog.Warn("no reddit credentials configured; subreddit sources disabled")
		return nil
	}
	return source.NewRedditClient(cfg.Sources.Reddit)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
