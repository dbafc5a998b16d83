package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const currentBlobVersion = 1

// blob is the on-disk representation: the whole gallery as one JSON document,
// read wholesale and written wholesale.
type blob struct {
	Version    int                  `json:"version"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Embeddings map[string][]float32 `json:"embeddings"`
}

// FileStore persists the gallery as a single JSON file. Writes go through a
// temp file followed by os.Rename, so a concurrent Reload never observes a
// half-written gallery.
type FileStore struct {
	path string
	mu   sync.Mutex // serializes read-modify-write cycles
}

// NewFileStore creates a file-backed gallery store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Reload reads the gallery blob. A missing file is a valid empty gallery.
func (s *FileStore) Reload(ctx context.Context) (Gallery, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Gallery{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read gallery file: %w", err)
	}

	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode gallery file: %w", err)
	}
	if b.Embeddings == nil {
		return Gallery{}, nil
	}
	return Gallery(b.Embeddings), nil
}

// Upsert inserts or replaces one entry and rewrites the whole blob.
func (s *FileStore) Upsert(ctx context.Context, code string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.Reload(ctx)
	if err != nil {
		return err
	}
	g[code] = embedding
	return s.write(g)
}

// Remove deletes an entry if present, rewrites the blob, and reports whether
// the entry existed.
func (s *FileStore) Remove(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.Reload(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := g[code]; !ok {
		return false, nil
	}
	delete(g, code)
	if err := s.write(g); err != nil {
		return false, err
	}
	return true, nil
}

// write replaces the blob atomically: temp file in the same directory, then rename.
func (s *FileStore) write(g Gallery) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create gallery directory: %w", err)
	}

	data, err := json.Marshal(blob{
		Version:    currentBlobVersion,
		UpdatedAt:  time.Now().UTC(),
		Embeddings: g,
	})
	if err != nil {
		return fmt.Errorf("encode gallery: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gallery-*.json")
	if err != nil {
		return fmt.Errorf("create temp gallery file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp gallery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp gallery file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace gallery file: %w", err)
	}
	return nil
}
