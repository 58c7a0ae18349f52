package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements Store on the local filesystem rooted at a directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates a filesystem-backed store rooted at root.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the store's root directory.
func (s *LocalStore) Root() string { return s.root }

// Save writes data under key, creating parent directories as needed.
// The returned reference is the absolute file path.
func (s *LocalStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	return path, nil
}

// Read loads the artifact a reference points to.
func (s *LocalStore) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", ref, err)
	}
	return data, nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	for _, elem := range strings.Split(filepath.ToSlash(key), "/") {
		if elem == ".." {
			return "", fmt.Errorf("invalid artifact key: %s", key)
		}
	}
	return filepath.Join(s.root, filepath.Clean("/"+key)), nil
}
