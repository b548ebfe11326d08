package storage

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store used in tests and dry-run scenarios.
type MemStore struct {
	mu    sync.Mutex
	files map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string]string)}
}

func (s *MemStore) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.files[path]
	if !ok {
		return "", ErrNotFound
	}
	return content, nil
}

func (s *MemStore) Write(ctx context.Context, path string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = content
	return nil
}

func (s *MemStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[path]; !ok {
		return ErrNotFound
	}
	delete(s.files, path)
	return nil
}

// Exists reports whether a file is present.
func (s *MemStore) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok
}

// Len returns the number of stored files.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

var _ Store = (*MemStore)(nil)
