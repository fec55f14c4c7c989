package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v77/github"
)

var (
	// ErrRateLimited is wrapped by every error caused by a primary or
	// secondary rate limit
	ErrRateLimited = errors.New("github rate limit exceeded")
)

const (
	defaultPerPage = 30
	maxPerPage     = 100
)

// NewClient creates a GitHub API client with authentication
// token: GitHub personal access token, empty for anonymous access
func NewClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token == "" {
		return client
	}
	return client.WithAuthToken(token)
}

// GetIssue fetches a single GitHub issue
func GetIssue(ctx context.Context, client *github.Client, owner, repo string, number int) (*Issue, error) {
	ghIssue, _, err := client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, handleAPIError(err, "failed to get issue")
	}
	return ParseIssue(ghIssue), nil
}

// GetPullRequest fetches a single GitHub pull request
func GetPullRequest(ctx context.Context, client *github.Client, owner, repo string, number int) (*PullRequest, error) {
	ghPR, _, err := client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, handleAPIError(err, "failed to get pull request")
	}
	return ParsePullRequest(ghPR), nil
}

// GetPullRequestDiff fetches the unified diff of a pull request
func GetPullRequestDiff(ctx context.Context, client *github.Client, owner, repo string, number int) (string, error) {
	raw, _, err := client.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", handleAPIError(err, "failed to get pull request diff")
	}
	return raw, nil
}

// SearchIssues runs a repository-scoped search over issues and pull
// requests. The search API rejects queries without an is:pr or is:issue
// qualifier, so SearchAll runs one query per kind, pull requests first.
func SearchIssues(ctx context.Context, client *github.Client, owner, repo, terms string, opts SearchOptions) ([]Issue, error) {
	kinds := []SearchKind{opts.Kind}
	if opts.Kind == SearchAll {
		kinds = []SearchKind{SearchPullRequests, SearchIssuesOnly}
	}

	searchOpts := &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: clampPerPage(opts.PerPage)},
	}

	var results []Issue
	for _, kind := range kinds {
		query := buildSearchQuery(owner, repo, terms, kind, opts.State)

		found, _, err := client.Search.Issues(ctx, query, searchOpts)
		if err != nil {
			return nil, handleAPIError(err, "failed to search issues")
		}
		for _, ghIssue := range found.Issues {
			if ghIssue != nil {
				results = append(results, *ParseIssue(ghIssue))
			}
		}
	}

	return results, nil
}

// ListRecentPullRequests lists up to limit pull requests in any state,
// newest first
func ListRecentPullRequests(ctx context.Context, client *github.Client, owner, repo string, limit int) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: clampPerPage(limit)},
	}

	var prs []PullRequest
	for len(prs) < limit {
		page, resp, err := client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, handleAPIError(err, "failed to list pull requests")
		}
		for _, ghPR := range page {
			if ghPR != nil && len(prs) < limit {
				prs = append(prs, *ParsePullRequest(ghPR))
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return prs, nil
}

// ListRecentIssues lists up to limit issues in any state, newest first.
// Pull requests returned by the issues endpoint are skipped.
func ListRecentIssues(ctx context.Context, client *github.Client, owner, repo string, limit int) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: clampPerPage(limit)},
	}

	var issues []Issue
	for len(issues) < limit {
		page, resp, err := client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, handleAPIError(err, "failed to list issues")
		}
		for _, ghIssue := range page {
			if ghIssue == nil || ghIssue.IsPullRequest() {
				continue
			}
			if len(issues) < limit {
				issues = append(issues, *ParseIssue(ghIssue))
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return issues, nil
}

// ParseIssue converts a go-github Issue to our Issue struct
func ParseIssue(ghIssue *github.Issue) *Issue {
	issue := &Issue{
		ID:            ghIssue.GetID(),
		Number:        ghIssue.GetNumber(),
		Title:         ghIssue.GetTitle(),
		Body:          ghIssue.GetBody(),
		State:         ghIssue.GetState(),
		CreatedAt:     ghIssue.GetCreatedAt().Time,
		UpdatedAt:     ghIssue.GetUpdatedAt().Time,
		HTMLURL:       ghIssue.GetHTMLURL(),
		CommentCount:  ghIssue.GetComments(),
		IsPullRequest: ghIssue.IsPullRequest(),
	}

	if user := ghIssue.GetUser(); user != nil {
		issue.Author = user.GetLogin()
	}

	for _, label := range ghIssue.Labels {
		if label != nil {
			issue.Labels = append(issue.Labels, label.GetName())
		}
	}

	if ghIssue.ClosedAt != nil {
		closedAt := ghIssue.GetClosedAt().Time
		issue.ClosedAt = &closedAt
	}

	if issue.IsPullRequest {
		issue.Draft = ghIssue.GetDraft()
		if links := ghIssue.GetPullRequestLinks(); links != nil && links.MergedAt != nil {
			issue.Merged = true
		}
	}

	return issue
}

// ParsePullRequest converts a go-github PullRequest to our PullRequest struct
func ParsePullRequest(ghPR *github.PullRequest) *PullRequest {
	pr := &PullRequest{
		ID:           ghPR.GetID(),
		Number:       ghPR.GetNumber(),
		Title:        ghPR.GetTitle(),
		Body:         ghPR.GetBody(),
		State:        ghPR.GetState(),
		CreatedAt:    ghPR.GetCreatedAt().Time,
		UpdatedAt:    ghPR.GetUpdatedAt().Time,
		HTMLURL:      ghPR.GetHTMLURL(),
		Merged:       ghPR.GetMerged(),
		Draft:        ghPR.GetDraft(),
		Additions:    ghPR.GetAdditions(),
		Deletions:    ghPR.GetDeletions(),
		ChangedFiles: ghPR.GetChangedFiles(),
	}

	if user := ghPR.GetUser(); user != nil {
		pr.Author = user.GetLogin()
	}

	if base := ghPR.GetBase(); base != nil {
		pr.BaseBranch = base.GetRef()
		pr.BaseSHA = base.GetSHA()
	}
	if head := ghPR.GetHead(); head != nil {
		pr.HeadBranch = head.GetRef()
		pr.HeadSHA = head.GetSHA()
	}

	if ghPR.MergedAt != nil {
		mergedAt := ghPR.GetMergedAt().Time
		pr.MergedAt = &mergedAt
		// List endpoints omit "merged" but still carry merged_at
		pr.Merged = true
	}
	if ghPR.ClosedAt != nil {
		closedAt := ghPR.GetClosedAt().Time
		pr.ClosedAt = &closedAt
	}

	for _, label := range ghPR.Labels {
		if label != nil {
			pr.Labels = append(pr.Labels, label.GetName())
		}
	}

	return pr
}

// buildSearchQuery assembles a search query scoped to one repository
func buildSearchQuery(owner, repo, terms string, kind SearchKind, state string) string {
	parts := []string{fmt.Sprintf("repo:%s/%s", owner, repo)}

	switch kind {
	case SearchPullRequests:
		parts = append(parts, "is:pr")
	case SearchIssuesOnly:
		parts = append(parts, "is:issue")
	}

	if state == "open" || state == "closed" {
		parts = append(parts, "state:"+state)
	}

	if terms = strings.TrimSpace(terms); terms != "" {
		parts = append(parts, terms)
	}

	return strings.Join(parts, " ")
}

func clampPerPage(n int) int {
	if n <= 0 {
		return defaultPerPage
	}
	if n > maxPerPage {
		return maxPerPage
	}
	return n
}

// handleAPIError wraps GitHub API errors, tagging rate limit failures
// with ErrRateLimited
func handleAPIError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: %w (used %d of %d, resets at %v): %w",
			msg, ErrRateLimited, rateLimitErr.Rate.Used, rateLimitErr.Rate.Limit, rateLimitErr.Rate.Reset.Time, err)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %w (secondary, retry after %v): %w",
			msg, ErrRateLimited, abuseErr.GetRetryAfter(), err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

// IsRateLimited reports whether err was caused by a GitHub rate limit
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// ParseBodyReferences extracts issue/PR references from body text
// Looks for patterns like "Fixes #123", "Closes #456", etc.
// Each number is reported once, in order of first appearance.
func ParseBodyReferences(body string) []int {
	refs := []int{}
	seen := make(map[int]bool)
	patterns := []string{"fixes", "closes", "resolves", "fix", "close", "resolve", "related to", "see", "duplicate of", "duplicates"}

	words := strings.Fields(strings.ToLower(body))
	for i := range words {
		for _, pattern := range patterns {
			patternWords := strings.Fields(pattern)
			end := i + len(patternWords)
			if end >= len(words) || strings.Join(words[i:end], " ") != pattern {
				continue
			}

			nextWord := words[end]
			if !strings.HasPrefix(nextWord, "#") {
				continue
			}
			var num int
			if _, err := fmt.Sscanf(nextWord, "#%d", &num); err == nil && num > 0 && !seen[num] {
				seen[num] = true
				refs = append(refs, num)
			}
		}
	}

	return refs
}
