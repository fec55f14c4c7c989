package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// TestDefaultMilvusConfig tests default configuration
func TestDefaultMilvusConfig(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_COLLECTION", "")

	config := DefaultMilvusConfig()

	if config.Address != "localhost:19530" {
		t.Errorf("Expected default address, got %s", config.Address)
	}
	if config.CollectionName != "prdupe_records" {
		t.Errorf("Expected default collection name, got %s", config.CollectionName)
	}
	if config.Dimension != 1536 {
		t.Errorf("Expected dimension 1536, got %d", config.Dimension)
	}
	if config.MaxRecords != DefaultMaxRecords {
		t.Errorf("Expected max records %d, got %d", DefaultMaxRecords, config.MaxRecords)
	}
	if config.M != 16 || config.EfConstruction != 256 || config.SearchEf != 64 {
		t.Errorf("Unexpected HNSW parameters: %+v", config)
	}
}

func TestDefaultMilvusConfig_Env(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "milvus:19530")
	t.Setenv("MILVUS_COLLECTION", "custom")

	config := DefaultMilvusConfig()
	if config.Address != "milvus:19530" || config.CollectionName != "custom" {
		t.Errorf("Expected env overrides, got %+v", config)
	}
}

func TestNewMilvusStore_InvalidDimension(t *testing.T) {
	config := DefaultMilvusConfig()
	config.Dimension = 0

	_, err := NewMilvusStore(context.Background(), config)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
}

func TestMilvusStore_RejectsBadRecords(t *testing.T) {
	ctx := context.Background()
	store := &MilvusStore{config: DefaultMilvusConfig()}

	if err := store.Upsert(ctx, EmbeddingRecord{Vector: []float32{1}}); !errors.Is(err, ErrMissingID) {
		t.Errorf("Expected ErrMissingID, got %v", err)
	}
	if err := store.Upsert(ctx, EmbeddingRecord{ID: "pr:1"}); !errors.Is(err, ErrEmptyVector) {
		t.Errorf("Expected ErrEmptyVector, got %v", err)
	}
	if err := store.Upsert(ctx, EmbeddingRecord{ID: "pr:1", Vector: []float32{1, 0}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := store.QuerySimilar(ctx, []float32{1, 0}, 0.5, 10); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestIDFilter(t *testing.T) {
	got := idFilter([]string{"pr:1", "issue:2"})
	want := `record_id in ["pr:1", "issue:2"]`
	if got != want {
		t.Errorf("idFilter() = %s, want %s", got, want)
	}
}

func TestOldestExcess(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		created []int64
		max     int
		want    []string
	}{
		{
			name:    "under cap",
			ids:     []string{"pr:1", "pr:2"},
			created: []int64{100, 200},
			max:     3,
			want:    nil,
		},
		{
			name:    "at cap",
			ids:     []string{"pr:1", "pr:2"},
			created: []int64{100, 200},
			max:     2,
			want:    nil,
		},
		{
			name:    "evicts oldest first",
			ids:     []string{"pr:3", "pr:1", "issue:2", "pr:4"},
			created: []int64{300, 100, 200, 400},
			max:     2,
			want:    []string{"pr:1", "issue:2"},
		},
		{
			name:    "equal timestamps ordered by id",
			ids:     []string{"pr:9", "pr:5", "pr:7"},
			created: []int64{100, 100, 100},
			max:     1,
			want:    []string{"pr:5", "pr:7"},
		},
		{
			name:    "zero cap evicts everything",
			ids:     []string{"pr:1"},
			created: []int64{100},
			max:     0,
			want:    []string{"pr:1"},
		},
		{
			name:    "ragged columns use shorter length",
			ids:     []string{"pr:1", "pr:2", "pr:3"},
			created: []int64{300, 100},
			max:     1,
			want:    []string{"pr:2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oldestExcess(tt.ids, tt.created, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("oldestExcess() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("oldestExcess()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTruncateBytes(t *testing.T) {
	s := strings.Repeat("日", 10) // 3 bytes each

	got := truncateBytes(s, 10)
	if len(got) != 9 {
		t.Errorf("Expected 9 bytes, got %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("Expected valid UTF-8")
	}
	if truncateBytes("short", 10) != "short" {
		t.Error("Expected short strings unchanged")
	}
}

// Integration test: Upsert, QuerySimilar, EvictOlderThan against a live Milvus
func TestMilvusStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if os.Getenv("MILVUS_ADDRESS") == "" {
		t.Skip("MILVUS_ADDRESS not set")
	}

	ctx := context.Background()
	config := DefaultMilvusConfig()
	config.Dimension = 3
	config.CollectionName = "prdupe_test_integration"

	store, err := NewMilvusStore(ctx, config)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	old := EmbeddingRecord{ID: "pr:1", Kind: KindPR, Number: 1, Title: "old", Vector: []float32{1, 0, 0}, CreatedAt: time.Now().AddDate(0, 0, -90)}
	fresh := EmbeddingRecord{ID: "issue:2", Kind: KindIssue, Number: 2, Title: "fresh", Vector: []float32{0, 1, 0}, CreatedAt: time.Now()}

	for _, rec := range []EmbeddingRecord{old, fresh} {
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert %s failed: %v", rec.ID, err)
		}
	}

	matches, err := store.QuerySimilar(ctx, []float32{1, 0, 0}, 0.9, 5)
	if err != nil {
		t.Fatalf("QuerySimilar failed: %v", err)
	}
	if len(matches) == 0 || matches[0].Record.ID != "pr:1" {
		t.Errorf("Expected pr:1 as the top match, got %+v", matches)
	}

	removed, err := store.EvictOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("EvictOlderThan failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 evicted record, got %d", removed)
	}

	existing, err := store.Exists(ctx, []string{"pr:1", "issue:2"})
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if existing["pr:1"] || !existing["issue:2"] {
		t.Errorf("Unexpected existence after eviction: %v", existing)
	}
}

// Integration test: Upsert past MaxRecords drops the oldest rows
func TestMilvusStore_IntegrationCap(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if os.Getenv("MILVUS_ADDRESS") == "" {
		t.Skip("MILVUS_ADDRESS not set")
	}

	ctx := context.Background()
	config := DefaultMilvusConfig()
	config.Dimension = 3
	config.MaxRecords = 2
	config.CollectionName = "prdupe_test_cap"

	store, err := NewMilvusStore(ctx, config)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Now().AddDate(0, 0, -3)
	for i := 1; i <= 3; i++ {
		rec := EmbeddingRecord{
			ID:        fmt.Sprintf("pr:%d", i),
			Kind:      KindPR,
			Number:    i,
			Vector:    []float32{1, float32(i), 0},
			CreatedAt: base.AddDate(0, 0, i),
		}
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert %s failed: %v", rec.ID, err)
		}
	}

	existing, err := store.Exists(ctx, []string{"pr:1", "pr:2", "pr:3"})
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if existing["pr:1"] || !existing["pr:2"] || !existing["pr:3"] {
		t.Errorf("Expected the oldest record evicted, got %v", existing)
	}
}
