// Package local provides a datasetgen.Storage that writes into a directory.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhpenta/datasetgen"
)

// Storage writes files below a root directory.
type Storage struct {
	root string
}

var _ datasetgen.Storage = (*Storage)(nil)

// New creates the root directory if needed.
func New(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", abs, err)
	}
	return &Storage{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Storage) Root() string {
	return s.root
}

// SaveFile writes data to path relative to the root and returns a file:// URL.
// Paths escaping the root are rejected.
func (s *Storage) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.Clean("/"+path))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}

	return "file://" + filepath.ToSlash(full), nil
}
