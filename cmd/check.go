package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/prdupe/internal/adapter"
	"github.com/Yates-Labs/prdupe/internal/config"
	"github.com/Yates-Labs/prdupe/internal/orchestrator"
)

var (
	explainVerdict bool
	jsonOutput     bool
)

var checkCmd = &cobra.Command{
	Use:   "check [pr|issue]",
	Short: "Check a pull request or issue for duplicates",
	Long: `Fetch a pull request or issue and list existing items that resemble it.

References may be a bare number (a pull request), #N, pr:N or issue:N.

Examples:
  prdupe check 123 --repo octo/widgets
  prdupe check issue:42 --explain
  prdupe check pr:7 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addReportFlags(checkCmd)
}

// addReportFlags registers the flags shared by commands that print a report
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&explainVerdict, "explain", false, "Ask an LLM to explain the verdict")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ref, err := adapter.ParseItemRef(args[0])
	if err != nil {
		return err
	}

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

	report, err := pipeline.Check(ctx, ref)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	renderReport(cmd.OutOrStdout(), report)
	return nil
}

// buildPipeline applies --explain and builds the pipeline
func buildPipeline(ctx context.Context, cfg config.Config) (*orchestrator.Pipeline, error) {
	if explainVerdict {
		cfg.Explain.Enabled = true
	}
	pipeline, err := orchestrator.Build(ctx, cfg, orchestrator.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to set up: %w", err)
	}
	return pipeline, nil
}
