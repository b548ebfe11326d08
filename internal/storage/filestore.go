package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore serves a directory subtree on the local filesystem. All paths
// are resolved relative to Root; attempts to escape it are rejected.
type FileStore struct {
	Root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Root: dir}
}

// resolve joins path onto the root and refuses traversal outside it.
func (s *FileStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes store root", path)
	}
	return filepath.Join(s.Root, cleaned), nil
}

// Read returns the file's content, or ErrNotFound if it does not exist.
func (s *FileStore) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error reading file: %w", err)
	}
	return string(data), nil
}

// Write replaces the file's content, creating parent directories as needed.
func (s *FileStore) Write(ctx context.Context, path string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("error creating directories: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}
	return nil
}

// Delete removes the file. Deleting a missing file returns ErrNotFound.
func (s *FileStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("error deleting file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
