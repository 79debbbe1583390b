// Package fs defines the filesystem abstraction used by pgkeep.
// Both engines go through the FS interface for every read and mutation,
// which is what makes the dry-run guard and the tests possible.
package fs

import (
	"context"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	IsDir bool
}

type FS interface {
	Stat(path string) (FileInfo, error)
	MkdirAll(path string) error

	// Rename atomically publishes oldPath under newPath. It fails with
	// ErrExists when newPath is already present; it never replaces.
	Rename(ctx context.Context, oldPath, newPath string) error

	Remove(path string) error

	// RemoveDirIfEmpty removes path only when it has zero entries and
	// reports whether it did. A non-empty directory is not an error.
	RemoveDirIfEmpty(path string) (bool, error)

	ReadDirNames(path string) ([]string, error)

	// Canonical resolves symlinks and normalizes "." and ".." segments,
	// returning the absolute canonical form of path.
	Canonical(path string) (string, error)

	// WalkSuffix lists every regular file under root whose name ends in
	// suffix, with size and mtime populated.
	WalkSuffix(root, suffix string) ([]FileInfo, error)

	// Subdirs lists every directory strictly below root, children before
	// parents, so callers can sweep empty directories bottom-up.
	Subdirs(root string) ([]string, error)
}
