package github

import "time"

// Issue represents a GitHub issue, or a pull request as returned by the
// issues and search APIs
type Issue struct {
	ID            int64      `json:"id"`
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	State         string     `json:"state"`
	Author        string     `json:"author"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	Labels        []string   `json:"labels"`
	HTMLURL       string     `json:"html_url"`
	CommentCount  int        `json:"comment_count"`
	IsPullRequest bool       `json:"is_pull_request"`

	// Only set when IsPullRequest is true
	Merged bool `json:"merged,omitempty"`
	Draft  bool `json:"draft,omitempty"`
}

// PullRequest represents the parts of a GitHub pull request duplicate
// detection needs
type PullRequest struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	State        string     `json:"state"`
	Author       string     `json:"author"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	Labels       []string   `json:"labels"`
	BaseBranch   string     `json:"base_branch"`
	HeadBranch   string     `json:"head_branch"`
	BaseSHA      string     `json:"base_sha"`
	HeadSHA      string     `json:"head_sha"`
	Merged       bool       `json:"merged"`
	Draft        bool       `json:"draft"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	HTMLURL      string     `json:"html_url"`
}

// SearchKind restricts a search to pull requests or issues
type SearchKind string

const (
	SearchAll          SearchKind = ""
	SearchPullRequests SearchKind = "pr"
	SearchIssuesOnly   SearchKind = "issue"
)

// SearchOptions configures SearchIssues
type SearchOptions struct {
	Kind SearchKind

	// State is "open", "closed" or empty for both
	State string

	// PerPage bounds results per query (max 100)
	PerPage int
}
