package adapter

import (
	"context"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

// Source defines the interface for reading pull requests and issues from a
// hosting platform in the deduplication engine's vocabulary
type Source interface {
	dedup.LexicalSearcher

	// FetchItem loads a single pull request or issue
	FetchItem(ctx context.Context, ref ItemRef) (dedup.Item, error)

	// FetchDiff loads the unified diff of a pull request
	FetchDiff(ctx context.Context, number int) (string, error)

	// FetchDocuments lists up to limit recent pull requests and up to limit
	// recent issues for indexing
	FetchDocuments(ctx context.Context, limit int) ([]rag.Document, error)

	// RepositoryURL returns the browsable repository URL
	RepositoryURL() string
}

// ItemRef identifies a pull request or issue within a repository
type ItemRef struct {
	Kind   rag.Kind
	Number int
}
