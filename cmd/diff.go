package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	gitingest "github.com/Yates-Labs/prdupe/internal/ingest/git"
	"github.com/Yates-Labs/prdupe/internal/orchestrator"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

var (
	repoPath  string
	baseRev   string
	headRev   string
	patchFile string
	itemTitle string
	itemBody  string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Check a local branch or patch for duplicates before opening a PR",
	Long: `Check unpublished work against the repository's pull requests and issues.

By default the change is what --head adds over its merge base with --base in
the local clone at --repo-path, and the head commit message is used as the
title and description. With --file a unified diff is read from a file
("-" for stdin) and --title is required.

When --repo is not given, the repository is taken from the origin remote.

Examples:
  prdupe diff --base main
  prdupe diff --repo-path ../widgets --base origin/main --head feature/retry
  git diff main | prdupe diff --file - --title "Retry webhook deliveries"`,
	Args: cobra.NoArgs,
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVar(&repoPath, "repo-path", ".", "Path to the local clone")
	diffCmd.Flags().StringVar(&baseRev, "base", "main", "Base revision the change targets")
	diffCmd.Flags().StringVar(&headRev, "head", "HEAD", "Revision holding the change")
	diffCmd.Flags().StringVar(&patchFile, "file", "", "Read a unified diff from a file instead of git (- for stdin)")
	diffCmd.Flags().StringVar(&itemTitle, "title", "", "Title to search with (default: head commit subject)")
	diffCmd.Flags().StringVar(&itemBody, "body", "", "Description to search with (default: head commit body)")
	addReportFlags(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	var (
		rawDiff string
		head    gitingest.Revision
	)

	if patchFile != "" {
		if strings.TrimSpace(itemTitle) == "" {
			return fmt.Errorf("--title is required with --file")
		}
		rawDiff, err = readPatch(cmd.InOrStdin(), patchFile)
		if err != nil {
			return err
		}
	} else {
		repo, err := gitingest.OpenRepository(repoPath)
		if err != nil {
			return err
		}

		revDiff, err := gitingest.DiffRevisions(repo, baseRev, headRev)
		if err != nil {
			return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
		}
		rawDiff = revDiff.Patch
		head = revDiff.Head
		logger.Info("compared revisions",
			"base", revDiff.Base.ShortHash, "head", head.ShortHash,
			"merge_base", revDiff.MergeBase, "files", len(revDiff.Files))

		if cfg.GitHub.Repository == "" {
			owner, name, err := orchestrator.RepositoryFromRemote(repo)
			if err != nil {
				logger.Warn("no GitHub repository found, skipping search", "error", err)
			} else {
				cfg.GitHub.Repository = owner + "/" + name
			}
		}
	}

	ctx := cmd.Context()
	pipeline, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	report := pipeline.CheckChange(ctx, localItem(head, itemTitle, itemBody), rawDiff)

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	renderReport(cmd.OutOrStdout(), report)
	return nil
}

// localItem describes an unpublished change. It has no number, so it is
// never cached or matched against itself.
func localItem(head gitingest.Revision, title, body string) dedup.Item {
	item := dedup.Item{
		Kind:  rag.KindPR,
		Title: head.Subject,
		Body:  head.Body,
	}
	if !head.Author.When.IsZero() {
		item.CreatedAt = head.Author.When
	}
	if title != "" {
		item.Title = title
	}
	if body != "" {
		item.Body = body
	}
	return item
}

func readPatch(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read diff from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read diff: %w", err)
	}
	return string(data), nil
}
