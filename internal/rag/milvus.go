package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Common errors for Milvus operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert records")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

const (
	fieldRecordID    = "record_id"
	fieldKind        = "kind"
	fieldNumber      = "number"
	fieldTitle       = "title"
	fieldBodyExcerpt = "body_excerpt"
	fieldEmbedding   = "embedding"
	fieldCreatedAt   = "created_at"
)

var milvusOutputFields = []string{
	fieldRecordID, fieldKind, fieldNumber, fieldTitle, fieldBodyExcerpt, fieldCreatedAt,
}

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string `yaml:"address"`    // Milvus server address (e.g., "localhost:19530")
	CollectionName string `yaml:"collection"` // Name of the collection
	Dimension      int    `yaml:"-"`          // Vector dimension, taken from the embedder
	MaxRecords     int    `yaml:"-"`          // Row cap, taken from the store config

	// HNSW index parameters
	M              int `yaml:"m"`               // HNSW M parameter (default: 16)
	EfConstruction int `yaml:"ef_construction"` // HNSW efConstruction (default: 256)
	SearchEf       int `yaml:"search_ef"`       // HNSW ef at query time (default: 64)
}

// DefaultMilvusConfig returns default configuration from environment variables
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "prdupe_records"
	}

	return MilvusConfig{
		Address:        address,
		CollectionName: collection,
		Dimension:      1536,
		MaxRecords:     DefaultMaxRecords,
		M:              16,
		EfConstruction: 256,
		SearchEf:       64,
	}
}

// MilvusStore implements VectorStore using a Milvus collection with the
// COSINE metric, for repositories too large for the file-backed cache
type MilvusStore struct {
	client client.Client
	config MilvusConfig
	now    func() time.Time
}

var _ VectorStore = (*MilvusStore)(nil)

// NewMilvusStore creates a new Milvus vector store instance
// Connects to Milvus and ensures the collection exists with proper schema
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if config.MaxRecords <= 0 {
		config.MaxRecords = DefaultMaxRecords
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
		now:    time.Now,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if has {
		return m.client.LoadCollection(ctx, m.config.CollectionName, false)
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:       fieldRecordID,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       fieldKind,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "16"},
			},
			{
				Name:     fieldNumber,
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       fieldTitle,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "1024"},
			},
			{
				Name:       fieldBodyExcerpt,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "65535"},
			},
			{
				Name:     fieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.config.Dimension),
				},
			},
			{
				Name:     fieldCreatedAt,
				DataType: entity.FieldTypeInt64, // Unix timestamp
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// Upsert deletes any row with the record's ID and inserts the new one. When
// the collection then exceeds MaxRecords the oldest rows are deleted.
func (m *MilvusStore) Upsert(ctx context.Context, rec EmbeddingRecord) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	if len(rec.Vector) == 0 {
		return ErrEmptyVector
	}
	if len(rec.Vector) != m.config.Dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.config.Dimension, len(rec.Vector))
	}

	if err := m.client.Delete(ctx, m.config.CollectionName, "", idFilter([]string{rec.ID})); err != nil {
		return fmt.Errorf("failed to replace %s: %w", rec.ID, err)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldRecordID, []string{rec.ID}),
		entity.NewColumnVarChar(fieldKind, []string{string(rec.Kind)}),
		entity.NewColumnInt64(fieldNumber, []int64{int64(rec.Number)}),
		entity.NewColumnVarChar(fieldTitle, []string{truncateBytes(rec.Title, 1024)}),
		entity.NewColumnVarChar(fieldBodyExcerpt, []string{truncateBytes(rec.BodyExcerpt, 65535)}),
		entity.NewColumnFloatVector(fieldEmbedding, m.config.Dimension, [][]float32{rec.Vector}),
		entity.NewColumnInt64(fieldCreatedAt, []int64{rec.CreatedAt.Unix()}),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	// Flush to ensure data is persisted
	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}

	return m.enforceCap(ctx)
}

// enforceCap deletes the oldest rows by created_at until at most MaxRecords
// remain
func (m *MilvusStore) enforceCap(ctx context.Context) error {
	if m.config.MaxRecords <= 0 {
		return nil
	}

	n, err := m.Len(ctx)
	if err != nil {
		return err
	}
	if n <= m.config.MaxRecords {
		return nil
	}

	expr := fmt.Sprintf("%s != \"\"", fieldRecordID)
	rows, err := m.client.Query(ctx, m.config.CollectionName, nil, expr, []string{fieldRecordID, fieldCreatedAt})
	if err != nil {
		return fmt.Errorf("failed to query records for eviction: %w", err)
	}

	var (
		ids     []string
		created []int64
	)
	for _, column := range rows {
		switch col := column.(type) {
		case *entity.ColumnVarChar:
			if col.Name() == fieldRecordID {
				ids = col.Data()
			}
		case *entity.ColumnInt64:
			if col.Name() == fieldCreatedAt {
				created = col.Data()
			}
		}
	}

	evict := oldestExcess(ids, created, m.config.MaxRecords)
	if len(evict) == 0 {
		return nil
	}
	if err := m.client.Delete(ctx, m.config.CollectionName, "", idFilter(evict)); err != nil {
		return fmt.Errorf("failed to evict records: %w", err)
	}
	return nil
}

// oldestExcess returns the IDs to delete so that at most max rows remain,
// oldest first. Equal timestamps are ordered by ID.
func oldestExcess(ids []string, created []int64, max int) []string {
	n := min(len(ids), len(created))
	if max < 0 || n <= max {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if created[i] != created[j] {
			return created[i] < created[j]
		}
		return ids[i] < ids[j]
	})

	evict := make([]string, 0, n-max)
	for _, i := range order[:n-max] {
		evict = append(evict, ids[i])
	}
	return evict
}

// QuerySimilar performs a top-K COSINE search and keeps hits at or above
// threshold. Stored vectors are not returned.
func (m *MilvusStore) QuerySimilar(ctx context.Context, vector []float32, threshold float64, limit int) ([]Match, error) {
	if len(vector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.config.Dimension, len(vector))
	}
	if limit <= 0 {
		limit = DefaultMaxRecords
	}

	sp, err := entity.NewIndexHNSWSearchParam(m.config.SearchEf)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"",
		milvusOutputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		fieldEmbedding,
		entity.COSINE,
		limit,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	matches := []Match{}
	if len(results) == 0 {
		return matches, nil
	}

	records := recordsFromColumns(results[0].Fields, results[0].ResultCount)
	for i, rec := range records {
		score := float64(results[0].Scores[i])
		if score < threshold {
			continue
		}
		matches = append(matches, Match{Record: rec, Similarity: score})
	}

	return matches, nil
}

// EvictOlderThan deletes rows whose created_at is before now minus days
func (m *MilvusStore) EvictOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := m.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	expr := fmt.Sprintf("%s < %d", fieldCreatedAt, cutoff)

	stale, err := m.client.Query(ctx, m.config.CollectionName, nil, expr, []string{fieldRecordID})
	if err != nil {
		return 0, fmt.Errorf("failed to query stale records: %w", err)
	}

	count := 0
	for _, column := range stale {
		if column.Name() == fieldRecordID {
			count = column.Len()
		}
	}
	if count == 0 {
		return 0, nil
	}

	if err := m.client.Delete(ctx, m.config.CollectionName, "", expr); err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}

	return count, nil
}

// Exists checks which record IDs are stored
func (m *MilvusStore) Exists(ctx context.Context, ids []string) (map[string]bool, error) {
	existence := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existence, nil
	}
	for _, id := range ids {
		existence[id] = false
	}

	results, err := m.client.Query(ctx, m.config.CollectionName, nil, idFilter(ids), []string{fieldRecordID})
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	for _, column := range results {
		if column.Name() != fieldRecordID {
			continue
		}
		if varcharCol, ok := column.(*entity.ColumnVarChar); ok {
			for _, id := range varcharCol.Data() {
				existence[id] = true
			}
		}
	}

	return existence, nil
}

// Len returns the collection row count
func (m *MilvusStore) Len(ctx context.Context) (int, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get stats: %w", err)
	}

	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// idFilter builds `record_id in ["a", "b"]`
func idFilter(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return fmt.Sprintf("%s in [%s]", fieldRecordID, strings.Join(quoted, ", "))
}

// recordsFromColumns rebuilds records from column-oriented results
func recordsFromColumns(columns []entity.Column, n int) []EmbeddingRecord {
	records := make([]EmbeddingRecord, n)

	for _, column := range columns {
		switch col := column.(type) {
		case *entity.ColumnVarChar:
			data := col.Data()
			for i := 0; i < n && i < len(data); i++ {
				switch col.Name() {
				case fieldRecordID:
					records[i].ID = data[i]
				case fieldKind:
					records[i].Kind = Kind(data[i])
				case fieldTitle:
					records[i].Title = data[i]
				case fieldBodyExcerpt:
					records[i].BodyExcerpt = data[i]
				}
			}
		case *entity.ColumnInt64:
			data := col.Data()
			for i := 0; i < n && i < len(data); i++ {
				switch col.Name() {
				case fieldNumber:
					records[i].Number = int(data[i])
				case fieldCreatedAt:
					records[i].CreatedAt = time.Unix(data[i], 0).UTC()
				}
			}
		}
	}

	return records
}

// truncateBytes cuts s to at most max bytes without splitting a rune
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
