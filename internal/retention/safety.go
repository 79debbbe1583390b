package retention

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pgkeep/pgkeep/internal/fs"
)

// SafetyError is a fatal violation of the deletion confinement rules. It
// aborts the entire retention run before any enumeration; it is never
// partially applied and there is no fallback path.
type SafetyError struct {
	Check  string
	Reason string
}

func (e *SafetyError) Error() string {
	return fmt.Sprintf("retention safety: %s: %s", e.Check, e.Reason)
}

// denyRoots are coarse system paths the working root must never normalize
// to. This is defense in depth; the canonical comparison against the
// allowed root below is the primary guarantee.
func denyRoots() []string {
	deny := []string{"/", "/root", "/home"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		deny = append(deny, filepath.Clean(home))
	}
	return deny
}

// ValidateRoot runs the confinement checks in order, stopping at the
// first failure. On success it returns the canonical form of the
// candidate root, which all subsequent enumeration and deletion must use.
// It is a pure function of its inputs and the current symlink structure:
// identical inputs yield identical results.
func ValidateRoot(filesystem fs.FS, candidateRoot, allowedRoot string) (string, error) {
	if candidateRoot == "" {
		return "", &SafetyError{Check: "non-empty", Reason: "working root is empty"}
	}

	normalized := filepath.Clean(candidateRoot)
	for _, deny := range denyRoots() {
		if normalized == deny {
			return "", &SafetyError{
				Check:  "deny-list",
				Reason: fmt.Sprintf("working root %q is a protected system path", normalized),
			}
		}
	}

	st, err := filesystem.Stat(candidateRoot)
	if err != nil {
		return "", &SafetyError{
			Check:  "exists",
			Reason: fmt.Sprintf("working root %q: %v", candidateRoot, err),
		}
	}
	if !st.IsDir {
		return "", &SafetyError{
			Check:  "is-directory",
			Reason: fmt.Sprintf("working root %q is not a directory", candidateRoot),
		}
	}

	canonCandidate, err := filesystem.Canonical(candidateRoot)
	if err != nil {
		return "", &SafetyError{
			Check:  "canonicalize",
			Reason: fmt.Sprintf("resolving working root %q: %v", candidateRoot, err),
		}
	}
	canonAllowed, err := filesystem.Canonical(allowedRoot)
	if err != nil {
		return "", &SafetyError{
			Check:  "canonicalize",
			Reason: fmt.Sprintf("resolving allowed root %q: %v", allowedRoot, err),
		}
	}

	if canonCandidate != canonAllowed {
		return "", &SafetyError{
			Check:  "allowed-root",
			Reason: fmt.Sprintf("working root resolves to %q, allowed root is %q", canonCandidate, canonAllowed),
		}
	}

	return canonCandidate, nil
}
