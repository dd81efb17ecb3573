package cmd

import (
	"context"
	"fmt"
	"time"

	"reelpipe/internal/model"
	"reelpipe/internal/redisclient"
	"reelpipe/internal/storage"

	"github.com/spf13/cobra"
)

// itemsCmd groups operator actions on curated items.
var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Browse and approve curated items",
}

var itemsState string

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List curated items",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		items, err := store.ListItems(ctx)
		if err != nil {
			return err
		}
		for _, it := range items {
			state := it.State()
			if itemsState != "" && string(state) != itemsState {
				continue
			}
			score := fmt.Sprintf("%d", it.RelevanceScore)
			if it.RelevanceScore == model.ScoreFailed {
				score = "failed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-19s  score=%-6s  %s  %s\n",
				it.ID, state, score, it.SourceName, truncate(it.Title, 60))
		}
		return nil
	},
}

var itemsApproveCmd = &cobra.Command{
	Use:   "approve <fingerprint>",
	Short: "Mark an item as human-approved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := store.UpdateItem(ctx, args[0], func(it *model.CanonicalItem) error {
			it.HumanApproved = true
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "approved %s\n", args[0])
		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func init() {
	itemsListCmd.Flags().StringVar(&itemsState, "state", "", "filter by lifecycle state")
	itemsCmd.AddCommand(itemsListCmd, itemsApproveCmd)
	rootCmd.AddCommand(itemsCmd)
}
