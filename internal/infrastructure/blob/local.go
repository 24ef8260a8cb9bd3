// Package blob stores rendered documents and returns retrieval URLs.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes blobs to a directory on disk. Used for development and
// tests; production uses the GCS store.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a directory-backed store.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: baseURL}
}

// Save writes the blob under dir and returns its URL.
func (s *LocalStore) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", name, err)
	}
	return fmt.Sprintf("%s/%s", s.baseURL, name), nil
}
