// Package confine implements the path confinement guard: every
// caller-supplied path is resolved against the configured root directory
// and rejected if the result would fall outside it.
//
// The guard is purely lexical — it collapses "." and ".." segments and
// checks the prefix, but never touches the filesystem and never resolves
// symlinks. That keeps it deterministic and exhaustively testable; the
// symlink caveat is a documented limitation, not an oversight.
package confine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscape indicates a candidate path resolves outside the root.
var ErrPathEscape = errors.New("path escapes the allowed root")

// Confine resolves candidate against root and returns a normalized
// absolute path that is root itself or a descendant of it.
// root must be absolute and cleaned (config guarantees this at startup).
// An empty candidate maps to root. Absolute candidates are accepted only
// when they already lie under root.
func Confine(root, candidate string) (string, error) {
	if candidate == "" {
		return root, nil
	}

	var resolved string
	if filepath.IsAbs(candidate) {
		resolved = filepath.Clean(candidate)
	} else {
		// Join cleans the result, collapsing any ".." segments.
		resolved = filepath.Join(root, candidate)
	}

	if !Contains(root, resolved) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, candidate)
	}
	return resolved, nil
}

// Contains reports whether path equals root or sits beneath it.
// Both arguments must be absolute and cleaned.
func Contains(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// Rel converts a confined absolute path back to its root-relative form.
// The path must have passed Confine for the same root.
func Rel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
