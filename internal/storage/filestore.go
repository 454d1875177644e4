// Package storage fetches document content from disk. Callers only reach it
// after the policy engine has allowed content access.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidPath rejects relative paths that escape the store root.
	ErrInvalidPath = errors.New("filestore: invalid path")
	// ErrFileMissing indicates the catalog references content that is not on disk.
	ErrFileMissing = errors.New("filestore: file missing")
)

// FileStore reads document content by catalog-relative path.
type FileStore interface {
	Fetch(ctx context.Context, relativePath string) ([]byte, error)
}

// LocalStore serves content from a directory tree on the local filesystem.
type LocalStore struct {
	root string
}

// NewLocalStore anchors a store at root.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("filestore: root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Fetch reads the file at the relative path, refusing anything that resolves
// outside the store root.
func (s *LocalStore) Fetch(ctx context.Context, relativePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := strings.TrimSpace(relativePath)
	if rel == "" || filepath.IsAbs(rel) {
		return nil, ErrInvalidPath
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return nil, ErrInvalidPath
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", rel, err)
	}
	return data, nil
}
