package adapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v77/github"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	githubmodel "github.com/Yates-Labs/prdupe/internal/github"
	"github.com/Yates-Labs/prdupe/internal/rag"
	"github.com/Yates-Labs/prdupe/internal/textsim"
)

// Common errors for adapter operations
var (
	ErrInvalidRef  = errors.New("invalid item reference")
	ErrUnknownKind = errors.New("unknown item kind")
)

const defaultSearchResults = 20

var _ Source = (*GitHubAdapter)(nil)

// GitHubAdapter implements Source for one GitHub repository
type GitHubAdapter struct {
	client *github.Client
	owner  string
	repo   string

	// SearchResults bounds results per search query
	SearchResults int
}

// NewGitHubAdapter creates a new GitHub adapter instance
func NewGitHubAdapter(client *github.Client, owner, repo string) *GitHubAdapter {
	return &GitHubAdapter{
		client:        client,
		owner:         owner,
		repo:          repo,
		SearchResults: defaultSearchResults,
	}
}

// RepositoryURL returns https://github.com/owner/repo
func (a *GitHubAdapter) RepositoryURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", a.owner, a.repo)
}

// Search finds pull requests and issues matching the query keywords. Each
// hit is scored by the lexical similarity of its title to the query title.
func (a *GitHubAdapter) Search(ctx context.Context, q dedup.LexicalQuery) ([]dedup.Candidate, error) {
	hits, err := githubmodel.SearchIssues(ctx, a.client, a.owner, a.repo, q.Keywords,
		githubmodel.SearchOptions{PerPage: a.SearchResults})
	if err != nil {
		return nil, err
	}

	candidates := make([]dedup.Candidate, 0, len(hits))
	for i := range hits {
		candidates = append(candidates, CandidateFromIssue(&hits[i], textsim.Similarity(q.Title, hits[i].Title)))
	}
	return candidates, nil
}

// FetchItem loads a pull request or issue as an engine item
func (a *GitHubAdapter) FetchItem(ctx context.Context, ref ItemRef) (dedup.Item, error) {
	switch ref.Kind {
	case rag.KindPR:
		pr, err := githubmodel.GetPullRequest(ctx, a.client, a.owner, a.repo, ref.Number)
		if err != nil {
			return dedup.Item{}, err
		}
		return ItemFromPullRequest(pr), nil
	case rag.KindIssue:
		issue, err := githubmodel.GetIssue(ctx, a.client, a.owner, a.repo, ref.Number)
		if err != nil {
			return dedup.Item{}, err
		}
		return ItemFromIssue(issue), nil
	default:
		return dedup.Item{}, fmt.Errorf("%w: %q", ErrUnknownKind, ref.Kind)
	}
}

// FetchDiff loads the unified diff of a pull request
func (a *GitHubAdapter) FetchDiff(ctx context.Context, number int) (string, error) {
	return githubmodel.GetPullRequestDiff(ctx, a.client, a.owner, a.repo, number)
}

// FetchDocuments lists recent pull requests then recent issues
func (a *GitHubAdapter) FetchDocuments(ctx context.Context, limit int) ([]rag.Document, error) {
	prs, err := githubmodel.ListRecentPullRequests(ctx, a.client, a.owner, a.repo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull requests: %w", err)
	}

	issues, err := githubmodel.ListRecentIssues(ctx, a.client, a.owner, a.repo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues: %w", err)
	}

	docs := make([]rag.Document, 0, len(prs)+len(issues))
	for i := range prs {
		docs = append(docs, DocumentFromPullRequest(&prs[i]))
	}
	for i := range issues {
		docs = append(docs, DocumentFromIssue(&issues[i]))
	}
	return docs, nil
}

// ItemFromPullRequest converts a GitHub pull request to an engine item
func ItemFromPullRequest(pr *githubmodel.PullRequest) dedup.Item {
	return dedup.Item{
		Kind:      rag.KindPR,
		Number:    pr.Number,
		Title:     pr.Title,
		Body:      pr.Body,
		URL:       pr.HTMLURL,
		CreatedAt: pr.CreatedAt,
	}
}

// ItemFromIssue converts a GitHub issue to an engine item
func ItemFromIssue(issue *githubmodel.Issue) dedup.Item {
	return dedup.Item{
		Kind:      kindOf(issue),
		Number:    issue.Number,
		Title:     issue.Title,
		Body:      issue.Body,
		URL:       issue.HTMLURL,
		CreatedAt: issue.CreatedAt,
	}
}

// DocumentFromPullRequest converts a GitHub pull request to an indexable document
func DocumentFromPullRequest(pr *githubmodel.PullRequest) rag.Document {
	return rag.Document{
		Kind:      rag.KindPR,
		Number:    pr.Number,
		Title:     pr.Title,
		Body:      pr.Body,
		CreatedAt: pr.CreatedAt,
	}
}

// DocumentFromIssue converts a GitHub issue to an indexable document
func DocumentFromIssue(issue *githubmodel.Issue) rag.Document {
	return rag.Document{
		Kind:      kindOf(issue),
		Number:    issue.Number,
		Title:     issue.Title,
		Body:      issue.Body,
		CreatedAt: issue.CreatedAt,
	}
}

// CandidateFromIssue converts a search hit to a scored candidate
func CandidateFromIssue(issue *githubmodel.Issue, similarity float64) dedup.Candidate {
	return dedup.Candidate{
		Kind:       kindOf(issue),
		Number:     issue.Number,
		Title:      issue.Title,
		Similarity: similarity,
		Status:     normalizeStatus(issue.State, issue.Merged, issue.Draft),
		URL:        issue.HTMLURL,
	}
}

func kindOf(issue *githubmodel.Issue) rag.Kind {
	if issue.IsPullRequest {
		return rag.KindPR
	}
	return rag.KindIssue
}

// normalizeStatus maps GitHub state flags to a candidate status
// Priority: merged > closed > draft > open
func normalizeStatus(state string, merged, draft bool) dedup.Status {
	if merged {
		return dedup.StatusMerged
	}

	switch strings.ToLower(state) {
	case "closed":
		return dedup.StatusClosed
	case "open":
		if draft {
			return dedup.StatusDraft
		}
		return dedup.StatusOpen
	default:
		return dedup.StatusUnknown
	}
}

// ParseItemRef parses a reference to a pull request or issue
// Formats: "123", "#123", "pr:123", "pr-123", "issue:42", "issue-42".
// Bare numbers refer to pull requests.
func ParseItemRef(s string) (ItemRef, error) {
	s = strings.TrimSpace(s)

	ref := ItemRef{Kind: rag.KindPR}
	numStr := strings.TrimPrefix(s, "#")

	for _, kind := range []rag.Kind{rag.KindIssue, rag.KindPR} {
		for _, sep := range []string{":", "-"} {
			if rest, ok := strings.CutPrefix(s, string(kind)+sep); ok {
				ref.Kind = kind
				numStr = rest
			}
		}
	}

	number, err := strconv.Atoi(numStr)
	if err != nil {
		return ItemRef{}, fmt.Errorf("%w %q: %v", ErrInvalidRef, s, err)
	}
	if number <= 0 {
		return ItemRef{}, fmt.Errorf("%w %q: number must be positive", ErrInvalidRef, s)
	}

	ref.Number = number
	return ref, nil
}
