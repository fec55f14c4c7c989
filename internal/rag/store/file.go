// Package store persists rag.StoredCollection values.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yates-Labs/prdupe/internal/rag"
)

var (
	ErrMissingPath = errors.New("missing storage path")
	ErrCorrupt     = errors.New("stored collection is corrupt")
)

// FileStorage keeps a collection as one JSON document on disk
type FileStorage struct {
	path string
}

var _ rag.Storage = (*FileStorage)(nil)

// NewFileStorage returns a storage writing to path. The file is created on
// the first save.
func NewFileStorage(path string) (*FileStorage, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, ErrMissingPath
	}
	return &FileStorage{path: filepath.Clean(p)}, nil
}

// Path returns the file location
func (s *FileStorage) Path() string {
	return s.path
}

// Load reads the collection. A missing file returns an error matching
// os.ErrNotExist.
func (s *FileStorage) Load(ctx context.Context) (*rag.StoredCollection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var stored rag.StoredCollection
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &stored, nil
}

// Save writes the collection to a temp file in the same directory and renames
// it over the old one, so readers never see a partial file
func (s *FileStorage) Save(ctx context.Context, c *rag.StoredCollection) error {
	if c == nil {
		return errors.New("nil collection")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write collection: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace collection file: %w", err)
	}
	return nil
}
