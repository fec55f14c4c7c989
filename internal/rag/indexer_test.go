package rag

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeEmbedder returns a fixed-size vector derived from text length
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([]Embedding, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Embedding, len(texts))
	for i, text := range texts {
		out[i] = Embedding{Text: text, Vector: []float32{float32(len(text)), 1, 0}, Index: i, Model: "fake"}
	}
	return out, nil
}

func (f *fakeEmbedder) GetModel() string  { return "fake" }
func (f *fakeEmbedder) GetDimension() int { return 3 }

func testDocuments(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{
			Kind:      KindPR,
			Number:    i + 1,
			Title:     "Title",
			Body:      "Body",
			CreatedAt: testNow.Add(-time.Duration(i) * time.Hour),
		}
	}
	return docs
}

func TestIndexItems_Batches(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	store := OpenCollection(ctx, nil, testOptions())

	indexed, err := IndexItems(ctx, testDocuments(25), embedder, store, IndexOptions{BatchSize: 10})
	if err != nil {
		t.Fatalf("IndexItems failed: %v", err)
	}
	if indexed != 25 {
		t.Errorf("Expected 25 indexed, got %d", indexed)
	}
	if embedder.calls != 3 {
		t.Errorf("Expected 3 embedding calls, got %d", embedder.calls)
	}

	n, _ := store.Len(ctx)
	if n != 25 {
		t.Errorf("Expected 25 stored records, got %d", n)
	}
}

func TestIndexItems_SkipExisting(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	store := OpenCollection(ctx, nil, testOptions())

	docs := testDocuments(4)
	if _, err := IndexItems(ctx, docs[:2], embedder, store, DefaultIndexOptions()); err != nil {
		t.Fatalf("IndexItems failed: %v", err)
	}

	indexed, err := IndexItems(ctx, docs, embedder, store, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("IndexItems failed: %v", err)
	}
	if indexed != 2 {
		t.Errorf("Expected only the 2 new documents to be indexed, got %d", indexed)
	}
}

func TestIndexItems_EmbedError(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{err: ErrEmbeddingFailed}
	store := OpenCollection(ctx, nil, testOptions())

	_, err := IndexItems(ctx, testDocuments(3), embedder, store, DefaultIndexOptions())
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("Expected ErrEmbeddingFailed, got %v", err)
	}

	n, _ := store.Len(ctx)
	if n != 0 {
		t.Errorf("Expected nothing stored, got %d", n)
	}
}

func TestIndexItems_NilArguments(t *testing.T) {
	ctx := context.Background()
	docs := testDocuments(1)

	if _, err := IndexItems(ctx, docs, nil, OpenCollection(ctx, nil, testOptions()), DefaultIndexOptions()); err == nil {
		t.Error("Expected error for nil embedder")
	}
	if _, err := IndexItems(ctx, docs, &fakeEmbedder{}, nil, DefaultIndexOptions()); err == nil {
		t.Error("Expected error for nil store")
	}
	if n, err := IndexItems(ctx, nil, nil, nil, DefaultIndexOptions()); n != 0 || err != nil {
		t.Errorf("Expected no-op for empty input, got %d, %v", n, err)
	}
}
