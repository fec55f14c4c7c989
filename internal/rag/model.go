package rag

import (
	"context"
	"fmt"
	"time"
)

// SchemaVersion is the on-disk layout version of a StoredCollection.
// Bumping it discards every cached record on the next load.
const SchemaVersion = "1.0.0"

// Kind distinguishes pull requests from issues; numbers are only unique per kind
type Kind string

const (
	KindPR    Kind = "pr"
	KindIssue Kind = "issue"
)

// RecordID builds the stable identifier of a record
func RecordID(kind Kind, number int) string {
	return fmt.Sprintf("%s:%d", kind, number)
}

// EmbeddingRecord is one cached embedding of a pull request or issue
type EmbeddingRecord struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	BodyExcerpt string    `json:"bodyExcerpt"`
	Vector      []float32 `json:"vector"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StoredCollection is the persisted form of a Collection
type StoredCollection struct {
	SchemaVersion string            `json:"schemaVersion"`
	Records       []EmbeddingRecord `json:"records"`
	LastUpdated   time.Time         `json:"lastUpdated"`
}

// Match is a record returned by a similarity query with its cosine score
type Match struct {
	Record     EmbeddingRecord `json:"record"`
	Similarity float64         `json:"similarity"`
}

// Storage loads and saves a StoredCollection.
// Implementations live in the store package.
type Storage interface {
	Load(ctx context.Context) (*StoredCollection, error)
	Save(ctx context.Context, c *StoredCollection) error
}

// VectorStore defines the interface for record storage and similarity search
type VectorStore interface {
	// Upsert replaces any record with the same ID and persists the change
	Upsert(ctx context.Context, rec EmbeddingRecord) error

	// QuerySimilar returns records scoring at least threshold, best first,
	// at most limit of them
	QuerySimilar(ctx context.Context, vector []float32, threshold float64, limit int) ([]Match, error)

	// EvictOlderThan removes records created more than days ago and returns
	// how many were removed
	EvictOlderThan(ctx context.Context, days int) (int, error)

	// Len returns the number of stored records
	Len(ctx context.Context) (int, error)

	// Close releases resources and closes connections
	Close() error
}

// IndexOptions provides configuration for bulk indexing
type IndexOptions struct {
	// BatchSize determines how many documents to embed at once
	BatchSize int

	// SkipExisting skips documents whose record ID is already stored
	SkipExisting bool
}

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:    10,
		SkipExisting: true,
	}
}
