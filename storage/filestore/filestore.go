// Package filestore saves edited images onto the local filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhpenta/imageedit"
)

// FileStore persists edited images under a base directory.
type FileStore struct {
	basePath string
}

var _ imageedit.Storage = (*FileStore)(nil)

// New initializes a FileStore rooted at basePath, creating it if needed.
func New(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("filestore: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// SaveFile writes data at the relative key and returns the absolute file
// path. Keys are cleaned so they cannot escape the base directory; an
// existing file at the same key is overwritten.
func (s *FileStore) SaveFile(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	if s == nil {
		return "", imageedit.ErrStorageNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("filestore: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("filestore: write file: %w", err)
	}
	if abs, err := filepath.Abs(fullPath); err == nil {
		return abs, nil
	}
	return fullPath, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("filestore: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("filestore: invalid key")
	}
	return cleaned, nil
}
