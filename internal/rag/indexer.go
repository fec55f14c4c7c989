package rag

import (
	"context"
	"fmt"
)

// existenceChecker is implemented by stores that can report which IDs they hold
type existenceChecker interface {
	Exists(ctx context.Context, ids []string) (map[string]bool, error)
}

// IndexItems embeds documents in batches and upserts them into the store.
// This function:
// 1. Skips documents already stored when SkipExisting is set
// 2. Generates embeddings in batches
// 3. Upserts one record per document
// It returns how many documents were indexed.
func IndexItems(
	ctx context.Context,
	docs []Document,
	embedder Embedder,
	store VectorStore,
	opts IndexOptions,
) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	if embedder == nil {
		return 0, fmt.Errorf("embedder cannot be nil")
	}

	if store == nil {
		return 0, fmt.Errorf("vector store cannot be nil")
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	toIndex := docs
	if opts.SkipExisting {
		toIndex = filterNewDocuments(ctx, docs, store)
	}

	indexed := 0
	for batchStart := 0; batchStart < len(toIndex); batchStart += opts.BatchSize {
		batchEnd := batchStart + opts.BatchSize
		if batchEnd > len(toIndex) {
			batchEnd = len(toIndex)
		}

		batch := toIndex[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.EmbeddingText()
		}

		embeddings, err := embedder.Embed(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err)
		}
		if len(embeddings) != len(batch) {
			return indexed, fmt.Errorf("%w: expected %d embeddings for batch starting at %d, got %d",
				ErrEmbeddingFailed, len(batch), batchStart, len(embeddings))
		}

		for i, doc := range batch {
			if err := store.Upsert(ctx, doc.Record(embeddings[i].Vector)); err != nil {
				return indexed, fmt.Errorf("failed to store %s: %w", doc.ID(), err)
			}
			indexed++
		}
	}

	return indexed, nil
}

// filterNewDocuments removes documents that already exist in the store
func filterNewDocuments(ctx context.Context, docs []Document, store VectorStore) []Document {
	checker, ok := store.(existenceChecker)
	if !ok {
		return docs
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID()
	}

	existing, err := checker.Exists(ctx, ids)
	if err != nil {
		// Index everything; upsert replaces by ID anyway
		return docs
	}

	fresh := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if !existing[doc.ID()] {
			fresh = append(fresh, doc)
		}
	}
	return fresh
}
