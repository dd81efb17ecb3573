package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reelpipe/internal/redisclient"
	"reelpipe/internal/storage"
	"reelpipe/worker"

	"github.com/spf13/cobra"
)

// runCmd executes a single curation cycle and exits.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single curation cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		orc := worker.NewOrchestrator(cfg, store, buildAIClient(cfg), buildRedditClient(cfg))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		orc.RunCycle(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
