package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFileStore stages import buffers on the local filesystem. It is the
// fallback used when no S3 bucket is configured.
type LocalFileStore struct {
	dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if dir == "" {
		dir = "./data/asset_imports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create import storage dir: %w", err)
	}
	return &LocalFileStore{dir: dir}, nil
}

// path confines key to the store directory.
func (s *LocalFileStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(filepath.Clean(key)))
}

func (s *LocalFileStore) Put(_ context.Context, key string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return fmt.Errorf("write import file: %w", err)
	}
	return nil
}

func (s *LocalFileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return data, nil
}

func (s *LocalFileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove import file: %w", err)
	}
	return nil
}
