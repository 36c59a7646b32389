// Package filestore persists uploaded product images on local disk and
// maps between on-disk paths and the public paths handed to clients.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// productsSubdir is where product images live under the store root.
const productsSubdir = "products"

// Store writes uploaded files below a single root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir, creating the products
// subdirectory if it does not exist yet.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, productsSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{root: filepath.Clean(dir)}, nil
}

// Save writes data under a unique filename and returns its disk path,
// e.g. "uploads/products/<uuid>.jpg". The suggested name only contributes
// its extension; the rest is replaced by a UUID so concurrent uploads
// cannot collide.
func (s *Store) Save(data []byte, suggestedName string) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(suggestedName))
	path := filepath.Join(s.root, productsSubdir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store file %s: %w", name, err)
	}
	return path, nil
}

// PublicPath strips the store root from a disk path and normalizes the
// separators to forward slashes, producing the value recorded on the
// product and served under the public upload prefix. A path that does
// not carry the root prefix is returned normalized but otherwise as-is.
func (s *Store) PublicPath(diskPath string) string {
	normalized := filepath.ToSlash(diskPath)
	return strings.TrimPrefix(normalized, filepath.ToSlash(s.root)+"/")
}

// Remove deletes a stored file. It accepts both the disk path returned
// by Save and the public path recorded on a product. A file that is
// already gone is not an error; callers treat anything else as
// best-effort cleanup and must not fail their primary operation on it.
func (s *Store) Remove(path string) error {
	diskPath := filepath.Join(s.root, filepath.FromSlash(s.PublicPath(path)))
	if err := os.Remove(diskPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file %s: %w", path, err)
	}
	return nil
}
