package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements Store for a directory on the local filesystem
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a new LocalStore rooted at basePath
func NewLocalStore(basePath string) (*LocalStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local store base path is required")
	}

	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to access local store %s: %w", basePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local store %s is not a directory", basePath)
	}

	return &LocalStore{basePath: basePath}, nil
}

// List returns the regular files directly under the base path
func (ls *LocalStore) List(ctx context.Context) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ls.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", ls.basePath, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		objects = append(objects, Object{
			Name:    entry.Name(),
			Path:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return objects, nil
}

// BatchDelete removes every path relative to the base path. Files that are
// already gone are not an error.
func (ls *LocalStore) BatchDelete(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		full, err := ls.resolve(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// resolve maps a store relative path to a filesystem path inside the base path
func (ls *LocalStore) resolve(p string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(p))
	if cleaned == "." || filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes local store", p)
	}
	return filepath.Join(ls.basePath, cleaned), nil
}

// String returns the base path
func (ls *LocalStore) String() string {
	return ls.basePath
}
