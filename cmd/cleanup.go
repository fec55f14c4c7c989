package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var olderThanDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Evict old embeddings from the cache",
	Long: `Remove cached embeddings created more than --days days ago.
Defaults to store.retention_days.

Examples:
  prdupe cleanup
  prdupe cleanup --days 30`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().IntVar(&olderThanDays, "days", 0, "Age in days (default: store.retention_days)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	days := cfg.Store.RetentionDays
	if cmd.Flags().Changed("days") {
		days = olderThanDays
	}
	if days < 0 {
		return fmt.Errorf("--days must not be negative")
	}

	// Cleanup needs the store only; the repository is irrelevant
	cfg.GitHub.Repository = ""
	ctx := cmd.Context()
	pipeline, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	removed := pipeline.Cleanup(ctx, days)
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Removed %d embeddings older than %d days", removed, days)))
	return nil
}
