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

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Browse and track generated reel artifacts",
}

var artifactsItem string

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reel artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var (
			arts []model.Artifact
			err  error
		)
		if artifactsItem != "" {
			arts, err = store.ArtifactsForItem(ctx, artifactsItem)
		} else {
			arts, err = store.ListArtifacts(ctx)
		}
		if err != nil {
			return err
		}
		for _, a := range arts {
			approved := " "
			if a.ProductionApproved {
				approved = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s %s score=%-3d  %s\n",
				a.ID, a.ProductionStatus, approved, a.RelevanceScore, truncate(a.Title, 60))
		}
		return nil
	},
}

var artifactsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Advance an artifact through the production pipeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		next := model.ProductionStatus(args[1])
		if !model.ValidStatus(next) {
			return fmt.Errorf("unknown status %q", args[1])
		}

		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		art, err := store.GetArtifact(ctx, args[0])
		if err != nil {
			return err
		}
		if !model.ValidTransition(art.ProductionStatus, next) {
			return fmt.Errorf("cannot move artifact from %s to %s", art.ProductionStatus, next)
		}
		art.ProductionStatus = next
		if err := store.PutArtifact(ctx, art); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", art.ID, next)
		return nil
	},
}

var artifactsRevoke bool

var artifactsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve an artifact concept for production",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		art, err := store.GetArtifact(ctx, args[0])
		if err != nil {
			return err
		}
		art.ProductionApproved = !artifactsRevoke
		if err := store.PutArtifact(ctx, art); err != nil {
			return err
		}
		if artifactsRevoke {
			fmt.Fprintf(cmd.OutOrStdout(), "revoked approval for %s\n", art.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "approved %s\n", art.ID)
		}
		return nil
	},
}

func init() {
	artifactsListCmd.Flags().StringVar(&artifactsItem, "item", "", "only artifacts for this item fingerprint")
	artifactsApproveCmd.Flags().BoolVar(&artifactsRevoke, "revoke", false, "withdraw a previous approval")
	artifactsCmd.AddCommand(artifactsListCmd, artifactsStatusCmd, artifactsApproveCmd)
	rootCmd.AddCommand(artifactsCmd)
}
