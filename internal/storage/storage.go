// Package storage abstracts the file tree the engine mutates. The
// coordinator only needs snapshot-capable reads and whole-file writes
// addressed by a stable path string; everything else about where the bytes
// live is opaque.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no file exists at the path. Callers
// treat it as "snapshot is empty, the write will create the file".
var ErrNotFound = errors.New("file not found")

// Store is the shared mutable resource of the engine. Implementations are
// not required to lock: the design assumes a single logical actor and no
// concurrent external mutation during a transaction.
type Store interface {
	// Read returns the full current content of the file at path.
	Read(ctx context.Context, path string) (string, error)
	// Write replaces the file at path with content, creating it (and any
	// parent directories) if needed.
	Write(ctx context.Context, path string, content string) error
	// Delete removes the file at path.
	Delete(ctx context.Context, path string) error
}
