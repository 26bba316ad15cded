// Package storage ships the reference implementations of the key-value
// storage capability: a directory of JSON files for sandbox-style hosts and
// a database-backed table for hosts that already run one.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sessiondeck/folderdeck/internal/capability"
)

// FileStore keeps one file per key under a root directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the root directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Read returns the contents of the key's file, or
// capability.ErrKeyNotFound when it does not exist.
func (f *FileStore) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, capability.ErrKeyNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Write replaces the key's file atomically via a temp file and rename, so a
// crash mid-write never leaves a truncated document behind.
func (f *FileStore) Write(_ context.Context, key string, value []byte) error {
	target := f.path(key)

	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: replace %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

// sanitizeKey keeps keys inside the store directory regardless of input.
func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	key = replacer.Replace(key)
	if key == "" {
		key = "_"
	}
	return key
}
