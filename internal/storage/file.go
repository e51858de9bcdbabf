package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is a Store backed by one file per key under a base directory.
// Writes go through a temp file and rename so a crash mid-write never leaves
// a half-written value behind.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// path maps a key to a file name. Keys are flat identifiers; path separators
// are rejected rather than escaped.
func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, true, nil
}

// Set stores value under key.
func (s *FileStore) Set(key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to replace %s: %w", p, err)
	}
	return nil
}

// Delete removes key.
func (s *FileStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}
