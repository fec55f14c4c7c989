package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v6"

	gitingest "github.com/Yates-Labs/prdupe/internal/ingest/git"
)

var (
	ErrNoRepository    = errors.New("no repository configured")
	ErrUnsupportedHost = errors.New("only GitHub repositories are supported")
)

const githubHost = "github.com"

// ParseRepository splits "owner/repo" or a GitHub HTTPS/SSH URL into owner
// and repository name
func ParseRepository(s string) (owner, repo string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", ErrNoRepository
	}

	isURL := strings.Contains(s, "://") || strings.HasPrefix(s, "git@")
	if isURL && !strings.Contains(s, githubHost) {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedHost, s)
	}

	owner, repo = parseHostedGitURL(s, githubHost)
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return owner, repo, nil
}

// RepositoryFromRemote reads the GitHub repository behind a local clone's
// origin remote
func RepositoryFromRemote(repo *git.Repository) (owner, name string, err error) {
	url := gitingest.GetRemoteURL(repo, "origin")
	if url == "" {
		return "", "", fmt.Errorf("%w: no origin remote", ErrNoRepository)
	}
	return ParseRepository(url)
}

// parseHostedGitURL is a generic parser for hosted git services
func parseHostedGitURL(url, host string) (owner, repo string) {
	// Remove protocol if present
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "ssh://")
	url = strings.TrimPrefix(url, "git@")

	// Replace colon with slash for SSH URLs
	url = strings.Replace(url, ":", "/", 1)

	url = strings.TrimPrefix(url, host+"/")
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	// Extra segments such as /pull/12 are ignored
	parts := strings.Split(url, "/")
	if len(parts) >= 2 {
		return parts[0], strings.TrimSuffix(parts[1], ".git")
	}

	return "", url
}
