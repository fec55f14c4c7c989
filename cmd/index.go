package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/prdupe/internal/orchestrator"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed recent pull requests and issues into the cache",
	Long: `Fetch the most recent pull requests and issues (github.index_limit of
each) and store embeddings for the ones not cached yet. Requires
OPENAI_API_KEY.

Examples:
  prdupe index --repo octo/widgets
  prdupe index --verbose`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.GitHub.Repository == "" {
		return fmt.Errorf("%w: pass --repo or set github.repository", orchestrator.ErrNoRepository)
	}

	ctx := cmd.Context()
	pipeline, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("→ Indexing "+cfg.GitHub.Repository+"..."))
	indexed, err := pipeline.Index(ctx)
	if err != nil {
		if indexed > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render(fmt.Sprintf("Indexed %d items before failing", indexed)))
		}
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Indexed %d new items", indexed)))
	return nil
}
