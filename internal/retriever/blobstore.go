package retriever

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore persists fetched documents keyed by external identifier
type BlobStore interface {
	// Path returns the storage path a document would live at
	Path(id string) string
	// Exists reports whether a document is already stored
	Exists(id string) bool
	// Write stores a document atomically, filling it through the callback.
	// A failed fill leaves no partial file behind.
	Write(id string, fill func(w io.Writer) error) (string, error)
}

// FSStore is a filesystem BlobStore storing one PDF per identifier
type FSStore struct {
	dir string
}

// NewFSStore creates a filesystem blob store rooted at dir
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create papers directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Path returns the storage path for an identifier
func (s *FSStore) Path(id string) string {
	return filepath.Join(s.dir, id+".pdf")
}

// Exists reports whether the document is already cached
func (s *FSStore) Exists(id string) bool {
	info, err := os.Stat(s.Path(id))
	return err == nil && !info.IsDir()
}

// Write fills a temp file then renames it into place, so readers never see
// a partially written document
func (s *FSStore) Write(id string, fill func(w io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(s.dir, id+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	path := s.Path(id)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move document into place: %w", err)
	}

	return path, nil
}
