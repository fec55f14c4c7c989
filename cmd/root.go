package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/prdupe/internal/config"
)

var (
	configFile string
	repository string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "prdupe",
	Short: "prdupe - duplicate pull request detector",
	Long: `prdupe checks pull requests, issues and local branches against the
existing pull requests and issues of a GitHub repository.

Candidates are found by embedding similarity (OpenAI) and by GitHub search,
then merged into one ranked verdict.

Settings are read from .prdupe.yaml (or --config), then the environment:
  GITHUB_TOKEN       - GitHub token (optional, raises rate limits)
  OPENAI_API_KEY     - enables embedding similarity and OpenAI explanations
  ANTHROPIC_API_KEY  - used when explain.provider is anthropic
  MILVUS_ADDRESS     - Milvus server for the milvus store backend`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default .prdupe.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&repository, "repo", "", "GitHub repository as owner/repo or URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show progress logs")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the persistent flags
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if repository != "" {
		cfg.GitHub.Repository = repository
	}
	return cfg, nil
}

// newLogger writes warnings to stderr, and progress too with --verbose
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
