package fs

import (
	"context"
	"fmt"
	"os"
)

// renameNoReplace wraps os.Rename with retry logic for transient errors
// and a fail-closed collision check: an existing destination aborts the
// publish instead of being silently replaced.
func renameNoReplace(ctx context.Context, oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("rename %s: %w", newPath, ErrExists)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("rename: checking destination: %w", err)
	}

	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
