// Package fileutil provides file system utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no directory entry matches.
var ErrNotFound = errors.New("file not found")

// FindFileCaseInsensitive searches dir for a regular file named filename,
// ignoring case, and returns its actual path.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/path/to/project", "elli.yaml")
//	// Will find "elli.yaml", "ELLI.YAML", "Elli.yaml", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	return FindAny(dir, filename)
}

// FindAny returns the first entry of dir matching one of names, ignoring
// case. Names are tried in order, so earlier names win.
func FindAny(dir string, names ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, name := range names {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(entry.Name(), name) {
				return filepath.Join(dir, entry.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, strings.Join(names, ", "), dir)
}
