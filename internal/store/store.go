// internal/store/store.go
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/pkg/common"
)

// DefaultPath is used when no output path is configured
const DefaultPath = "catalog.json"

// Store persists catalogs as indented JSON documents
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store writing to path
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the file the store writes to
func (s *Store) Path() string {
	return s.path
}

// Save writes the catalog atomically: the document is written to a
// temporary file in the same directory and renamed over the target.
func (s *Store) Save(c catalog.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return common.NewIOError("mkdir", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return common.NewIOError("create", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return common.NewIOError("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return common.NewIOError("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return common.NewIOError("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return common.NewIOError("rename", s.path, err)
	}

	logger.Info("Saved catalog with %d groups to %s", len(c), s.path)
	return nil
}

// Load reads the catalog from disk
func (s *Store) Load() (catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, common.NewIOError("read", s.path, err)
	}

	var c catalog.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", s.path, err)
	}
	if c == nil {
		c = make(catalog.Catalog)
	}

	logger.Debug("Loaded catalog with %d groups from %s", len(c), s.path)
	return c, nil
}
