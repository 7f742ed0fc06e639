// Package snapshot persists precomputed read-model artifacts as
// labeled gob files with atomic replacement.
package snapshot

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCacheMiss is returned when a label has never been written.
var ErrCacheMiss = errors.New("snapshot: cache miss")

const fileExt = ".gob"

// Cache is a directory of labeled artifacts. Writes go to a temporary
// file first and are renamed into place, so a reader never observes a
// half-written artifact. Safe for concurrent readers with one writer.
type Cache struct {
	dir string
}

// NewCache creates a Cache rooted at dir, creating the directory if
// needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Write replaces the artifact under label atomically.
func (c *Cache) Write(label string, artifact any) error {
	path := c.path(label)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating snapshot %s: %w", label, err)
	}
	if err := gob.NewEncoder(f).Encode(artifact); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding snapshot %s: %w", label, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing snapshot %s: %w", label, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot %s: %w", label, err)
	}
	return nil
}

// Read decodes the artifact under label into out, which must be a
// pointer to the same type the artifact was written as. Returns
// ErrCacheMiss when the label has never been written.
func (c *Cache) Read(label string, out any) error {
	f, err := os.Open(c.path(label))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrCacheMiss, label)
	}
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", label, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("decoding snapshot %s: %w", label, err)
	}
	return nil
}

func (c *Cache) path(label string) string {
	return filepath.Join(c.dir, label+fileExt)
}
