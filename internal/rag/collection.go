package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultMaxRecords caps a collection; the oldest records are evicted first
const DefaultMaxRecords = 1000

var (
	ErrEmptyVector   = errors.New("record has no embedding vector")
	ErrMissingID     = errors.New("record has no id")
	ErrPersistFailed = errors.New("failed to persist collection")
)

// CollectionOptions configures a Collection
type CollectionOptions struct {
	MaxRecords int
	Logger     *slog.Logger
	Now        func() time.Time
}

// Collection is an in-memory embedding cache backed by a Storage.
// It is a performance cache only: load failures start it empty and any
// record can be rebuilt from the source repository.
type Collection struct {
	mu      sync.RWMutex
	records []EmbeddingRecord
	updated time.Time

	storage    Storage
	maxRecords int
	logger     *slog.Logger
	now        func() time.Time
}

var _ VectorStore = (*Collection)(nil)

// OpenCollection loads the collection held by storage. A nil storage gives a
// purely in-memory collection.
func OpenCollection(ctx context.Context, storage Storage, opts CollectionOptions) *Collection {
	c := &Collection{
		storage:    storage,
		maxRecords: opts.MaxRecords,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if c.maxRecords <= 0 {
		c.maxRecords = DefaultMaxRecords
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.load(ctx)
	return c
}

func (c *Collection) load(ctx context.Context) {
	c.records = []EmbeddingRecord{}
	if c.storage == nil {
		return
	}

	stored, err := c.storage.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("no stored collection, starting empty")
		} else {
			c.logger.Warn("failed to load collection, starting empty", "error", err)
		}
		return
	}
	if stored == nil {
		return
	}

	if stored.SchemaVersion != SchemaVersion {
		c.logger.Info("collection schema changed, discarding cached records",
			"stored_version", stored.SchemaVersion,
			"current_version", SchemaVersion,
			"discarded", len(stored.Records))
		return
	}

	for _, rec := range stored.Records {
		if rec.ID == "" || len(rec.Vector) == 0 {
			continue
		}
		c.records = append(c.records, rec)
	}
	c.updated = stored.LastUpdated
	c.sortAndCap()
}

// Upsert replaces the record with the same ID, keeps records newest first,
// evicts the oldest beyond the cap and persists. The whole sequence runs
// under the collection lock.
func (c *Collection) Upsert(ctx context.Context, rec EmbeddingRecord) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	if len(rec.Vector) == 0 {
		return ErrEmptyVector
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	replaced := false
	for i := range c.records {
		if c.records[i].ID == rec.ID {
			c.records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		c.records = append(c.records, rec)
	}

	c.sortAndCap()
	return c.persistLocked(ctx)
}

// QuerySimilar scores every record against vector. A limit of zero or less
// returns every record above threshold.
func (c *Collection) QuerySimilar(ctx context.Context, vector []float32, threshold float64, limit int) ([]Match, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := []Match{}
	for _, rec := range c.records {
		sim, err := CosineSimilarity(vector, rec.Vector)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if sim >= threshold {
			matches = append(matches, Match{Record: rec, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// EvictOlderThan removes records created before now minus days. The
// collection is persisted only when something was removed.
func (c *Collection) EvictOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := c.now().Add(-time.Duration(days) * 24 * time.Hour)

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.records[:0]
	removed := 0
	for _, rec := range c.records {
		if rec.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	c.records = kept

	if removed == 0 {
		return 0, nil
	}
	return removed, c.persistLocked(ctx)
}

// Exists reports which of ids are stored
func (c *Collection) Exists(ctx context.Context, ids []string) (map[string]bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	present := make(map[string]bool, len(c.records))
	for _, rec := range c.records {
		present[rec.ID] = true
	}

	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = present[id]
	}
	return result, nil
}

// Len returns the number of cached records
func (c *Collection) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

// Records returns a copy of the cached records, newest first
func (c *Collection) Records() []EmbeddingRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]EmbeddingRecord, len(c.records))
	copy(out, c.records)
	return out
}

// LastUpdated returns when the collection was last persisted
func (c *Collection) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

// Close closes the storage if it holds resources
func (c *Collection) Close() error {
	if closer, ok := c.storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Collection) sortAndCap() {
	sort.SliceStable(c.records, func(i, j int) bool {
		return c.records[i].CreatedAt.After(c.records[j].CreatedAt)
	})
	if len(c.records) > c.maxRecords {
		c.records = c.records[:c.maxRecords]
	}
}

func (c *Collection) persistLocked(ctx context.Context) error {
	c.updated = c.now()
	if c.storage == nil {
		return nil
	}

	snapshot := &StoredCollection{
		SchemaVersion: SchemaVersion,
		Records:       make([]EmbeddingRecord, len(c.records)),
		LastUpdated:   c.updated,
	}
	copy(snapshot.Records, c.records)

	if err := c.storage.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return nil
}
