package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Yates-Labs/prdupe/internal/rag"

	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps a collection in a local SQLite database.
// Vectors are stored as JSON text; the collection is small enough that the
// whole table is rewritten on every save.
type SQLiteStorage struct {
	db *sql.DB
}

var _ rag.Storage = (*SQLiteStorage)(nil)

// OpenSQLite opens (and creates if needed) the database at path
func OpenSQLite(path string) (*SQLiteStorage, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if strings.TrimSpace(path) == "" {
		return nil, ErrMissingPath
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	// modernc.org/sqlite uses a file path as DSN.
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Single-process local DB.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS collection_meta (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  schema_version TEXT NOT NULL,
  last_updated_unix_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS embedding_records (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  number INTEGER NOT NULL,
  title TEXT NOT NULL,
  body_excerpt TEXT NOT NULL,
  vector_json TEXT NOT NULL,
  created_at_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_embedding_records_created ON embedding_records(created_at_unix_ms DESC);
`)
	return err
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads the collection. An empty database returns an error matching
// fs.ErrNotExist.
func (s *SQLiteStorage) Load(ctx context.Context) (*rag.StoredCollection, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}

	var stored rag.StoredCollection
	var updatedMs int64
	err := s.db.QueryRowContext(ctx, `
SELECT schema_version, last_updated_unix_ms FROM collection_meta WHERE id = 1
`).Scan(&stored.SchemaVersion, &updatedMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no stored collection: %w", fs.ErrNotExist)
		}
		return nil, err
	}
	stored.LastUpdated = time.UnixMilli(updatedMs).UTC()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, kind, number, title, body_excerpt, vector_json, created_at_unix_ms
FROM embedding_records
ORDER BY created_at_unix_ms DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored.Records = []rag.EmbeddingRecord{}
	for rows.Next() {
		var rec rag.EmbeddingRecord
		var kind, vectorJSON string
		var createdMs int64
		if err := rows.Scan(&rec.ID, &kind, &rec.Number, &rec.Title, &rec.BodyExcerpt, &vectorJSON, &createdMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vectorJSON), &rec.Vector); err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", ErrCorrupt, rec.ID, err)
		}
		rec.Kind = rag.Kind(kind)
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		stored.Records = append(stored.Records, rec)
	}
	return &stored, rows.Err()
}

// Save replaces every stored row in one transaction
func (s *SQLiteStorage) Save(ctx context.Context, c *rag.StoredCollection) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if c == nil {
		return errors.New("nil collection")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embedding_records`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO embedding_records(id, kind, number, title, body_excerpt, vector_json, created_at_unix_ms)
VALUES(?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range c.Records {
		vectorJSON, err := json.Marshal(rec.Vector)
		if err != nil {
			return fmt.Errorf("failed to encode vector for %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID,
			string(rec.Kind),
			rec.Number,
			rec.Title,
			rec.BodyExcerpt,
			string(vectorJSON),
			rec.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to insert %s: %w", rec.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO collection_meta(id, schema_version, last_updated_unix_ms) VALUES(1, ?, ?)
ON CONFLICT(id) DO UPDATE SET schema_version = excluded.schema_version, last_updated_unix_ms = excluded.last_updated_unix_ms
`, c.SchemaVersion, c.LastUpdated.UnixMilli()); err != nil {
		return err
	}

	return tx.Commit()
}
