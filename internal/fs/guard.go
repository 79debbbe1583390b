package fs

import (
	"context"
	"path/filepath"
	"sync"
)

// OpKind identifies a recorded would-be mutation.
type OpKind string

const (
	OpRemove    OpKind = "remove"
	OpRemoveDir OpKind = "remove-dir"
	OpRename    OpKind = "rename"
	OpMkdirAll  OpKind = "mkdir-all"
)

// Op is one filesystem mutation a dry run would have performed.
type Op struct {
	Kind OpKind
	Path string
}

// DryRun wraps an FS so that every read behaves identically to the live
// path while every mutation is recorded instead of performed. The
// emptiness check of RemoveDirIfEmpty accounts for entries already
// recorded as removed, so a dry run reports the same directory sweep the
// live run would execute.
type DryRun struct {
	fs FS

	mu      sync.Mutex
	removed map[string]bool
	ops     []Op
}

var _ FS = (*DryRun)(nil)

func NewDryRun(fs FS) *DryRun {
	return &DryRun{fs: fs, removed: make(map[string]bool)}
}

// Ops returns the mutations recorded so far, in order.
func (d *DryRun) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Op(nil), d.ops...)
}

func (d *DryRun) record(kind OpKind, path string) {
	d.mu.Lock()
	d.removed[path] = true
	d.ops = append(d.ops, Op{Kind: kind, Path: path})
	d.mu.Unlock()
}

func (d *DryRun) Stat(path string) (FileInfo, error) { return d.fs.Stat(path) }

func (d *DryRun) ReadDirNames(path string) ([]string, error) { return d.fs.ReadDirNames(path) }

func (d *DryRun) Canonical(path string) (string, error) { return d.fs.Canonical(path) }

func (d *DryRun) WalkSuffix(root, suffix string) ([]FileInfo, error) {
	return d.fs.WalkSuffix(root, suffix)
}

func (d *DryRun) Subdirs(root string) ([]string, error) {
	return d.fs.Subdirs(root)
}

func (d *DryRun) MkdirAll(path string) error {
	d.record(OpMkdirAll, path)
	return nil
}

func (d *DryRun) Rename(_ context.Context, oldPath, newPath string) error {
	d.record(OpRename, newPath)
	return nil
}

func (d *DryRun) Remove(path string) error {
	d.record(OpRemove, path)
	return nil
}

func (d *DryRun) RemoveDirIfEmpty(path string) (bool, error) {
	names, err := d.fs.ReadDirNames(path)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	remaining := 0
	for _, name := range names {
		if !d.removed[filepath.Join(path, name)] {
			remaining++
		}
	}
	d.mu.Unlock()

	if remaining > 0 {
		return false, nil
	}

	d.record(OpRemoveDir, path)
	return true, nil
}
