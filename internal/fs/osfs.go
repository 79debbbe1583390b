package fs

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OSFS is the concrete implementation of FS backed by the local OS
// filesystem. Transient errors on rename are retried; everything else is
// a straight passthrough.
type OSFS struct{}

var _ FS = (*OSFS)(nil)

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Path:  path,
		Size:  st.Size(),
		MTime: st.ModTime(),
		IsDir: st.IsDir(),
	}, nil
}

func (o *OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameNoReplace(ctx, oldPath, newPath)
}

func (o *OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (o *OSFS) RemoveDirIfEmpty(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if isNotEmpty(err) {
		return false, nil
	}
	return false, err
}

func (o *OSFS) ReadDirNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, ent := range entries {
		names = append(names, ent.Name())
	}
	return names, nil
}

func (o *OSFS) Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

func (o *OSFS) WalkSuffix(root, suffix string) ([]FileInfo, error) {
	var out []FileInfo
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, FileInfo{
			Path:  path,
			Size:  info.Size(),
			MTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (o *OSFS) Subdirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Reverse lexical order puts children before their parents.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}
