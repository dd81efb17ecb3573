package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"reelpipe/internal/config"
	"reelpipe/internal/redisclient"
	"reelpipe/internal/storage"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and seed runtime settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings currently stored in Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		settings, err := store.Settings(ctx)
		if err != nil {
			return err
		}
		if len(settings) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no settings stored, file config applies")
			return nil
		}
		for k, v := range settings {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, v)
		}
		return nil
	},
}

// seedFile mirrors the settings hash, in a shape that is comfortable
// to hand-edit.
type seedFile struct {
	Feeds             []string `yaml:"feeds"`
	Subreddits        []string `yaml:"subreddits"`
	ScorePrompt       string   `yaml:"score_prompt"`
	ReelPrompt        string   `yaml:"reel_prompt"`
	RelevantThreshold *int     `yaml:"relevant_threshold"`
	ReelsPerItem      *int     `yaml:"reels_per_item"`
}

var settingsSeedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load settings from a YAML file into Redis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		var seed seedFile
		if err := yaml.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}

		settings := map[string]string{}
		if seed.Feeds != nil {
			b, err := json.Marshal(seed.Feeds)
			if err != nil {
				return err
			}
			settings[config.SettingFeeds] = string(b)
		}
		if seed.Subreddits != nil {
			b, err := json.Marshal(seed.Subreddits)
			if err != nil {
				return err
			}
			settings[config.SettingSubreddits] = string(b)
		}
		if seed.ScorePrompt != "" {
			settings[config.SettingScorePrompt] = seed.ScorePrompt
		}
		if seed.ReelPrompt != "" {
			settings[config.SettingReelPrompt] = seed.ReelPrompt
		}
		if seed.RelevantThreshold != nil {
			settings[config.SettingRelevantThreshold] = strconv.Itoa(*seed.RelevantThreshold)
		}
		if seed.ReelsPerItem != nil {
			settings[config.SettingReelsPerItem] = strconv.Itoa(*seed.ReelsPerItem)
		}
		if len(settings) == 0 {
			return fmt.Errorf("seed file contains no recognized settings")
		}

		cfg := GetConfig()
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := store.PutSettings(ctx, settings); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %d setting(s)\n", len(settings))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSeedCmd)
	rootCmd.AddCommand(settingsCmd)
}
