package fs

import (
	"errors"
	"syscall"
)

// ErrExists is returned by Rename when the destination already exists.
var ErrExists = errors.New("destination already exists")

// isTransient reports whether an operation should be retried.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

// isNotEmpty reports whether a directory removal failed because the
// directory still has entries.
func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST)
}
