package git

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	fdiff "github.com/go-git/go-git/v6/plumbing/format/diff"
	"github.com/go-git/go-git/v6/plumbing/object"
)

var (
	ErrUnknownRevision = errors.New("unknown revision")
	ErrNoMergeBase     = errors.New("revisions share no history")
)

// OpenRepository opens a Git repository from a local path, searching
// parent directories for the .git directory
func OpenRepository(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}

// ResolveCommit resolves a branch, tag or hash to a commit
func ResolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownRevision, rev, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	return commit, nil
}

// DiffRevisions computes the unified diff from the merge base of base and
// head to head
func DiffRevisions(repo *git.Repository, base, head string) (*RevisionDiff, error) {
	baseCommit, err := ResolveCommit(repo, base)
	if err != nil {
		return nil, err
	}
	headCommit, err := ResolveCommit(repo, head)
	if err != nil {
		return nil, err
	}

	bases, err := baseCommit.MergeBase(headCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute merge base: %w", err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%w: %s and %s", ErrNoMergeBase, base, head)
	}
	mergeBase := bases[0]

	patch, err := mergeBase.Patch(headCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to get patch: %w", err)
	}

	return &RevisionDiff{
		Base:      ParseRevision(baseCommit),
		Head:      ParseRevision(headCommit),
		MergeBase: mergeBase.Hash.String(),
		Files:     parseFileChanges(patch),
		Patch:     patch.String(),
	}, nil
}

// ParseRevision converts a go-git Commit to a Revision
func ParseRevision(commit *object.Commit) Revision {
	subject, body := parseCommitMessage(commit.Message)
	hash := commit.Hash.String()

	return Revision{
		Hash:      hash,
		ShortHash: hash[:8],
		Subject:   subject,
		Body:      body,
		Author:    ParseAuthor(commit.Author),
	}
}

// ParseAuthor converts go-git Signature to Author
func ParseAuthor(sig object.Signature) Author {
	return Author{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}

// parseFileChanges summarizes each file patch
func parseFileChanges(patch *object.Patch) []FileChange {
	var changes []FileChange

	for _, filePatch := range patch.FilePatches() {
		from, to := filePatch.Files()

		change := FileChange{IsBinary: filePatch.IsBinary()}
		switch {
		case from == nil && to != nil:
			change.Path = to.Path()
			change.Status = "added"
		case from != nil && to == nil:
			change.Path = from.Path()
			change.Status = "deleted"
		case from != nil && to != nil:
			change.Path = to.Path()
			change.Status = "modified"
			if from.Path() != to.Path() {
				change.OldPath = from.Path()
				change.Status = "renamed"
			}
		}

		for _, chunk := range filePatch.Chunks() {
			lines := countLines(chunk.Content())
			switch chunk.Type() {
			case fdiff.Add:
				change.Additions += lines
			case fdiff.Delete:
				change.Deletions += lines
			}
		}

		changes = append(changes, change)
	}

	return changes
}

// countLines counts lines including an unterminated final line
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// parseCommitMessage splits commit message into subject and body
func parseCommitMessage(message string) (subject, body string) {
	lines := strings.SplitN(message, "\n", 2)
	subject = strings.TrimSpace(lines[0])
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	}
	return
}

// GetRemoteURL returns the URL for a given remote name (e.g., "origin")
// Returns empty string if remote doesn't exist
func GetRemoteURL(repo *git.Repository, remoteName string) string {
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return ""
	}

	config := remote.Config()
	if len(config.URLs) == 0 {
		return ""
	}

	return config.URLs[0]
}
