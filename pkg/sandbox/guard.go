package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatedPath is an absolute, canonical path proven to lie within the
// sandbox root. Only Resolve produces one; tools never build these by hand.
// The filesystem may still change between validation and use, so a
// ValidatedPath is only good for the single operation that requested it.
type ValidatedPath string

func (v ValidatedPath) String() string { return string(v) }

// EscapeError reports a path that resolved outside the sandbox root.
type EscapeError struct {
	Requested string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("Path '%s' is outside the sandbox directory", e.Requested)
}

// Resolve joins rel onto the sandbox root, canonicalizes the result and
// verifies containment. It succeeds for paths that do not exist yet (files
// about to be created): the deepest existing ancestor is canonicalized and
// the missing suffix re-appended literally.
func (p *Policy) Resolve(rel string) (ValidatedPath, error) {
	joined := filepath.Join(p.root, rel)
	canonical, err := canonicalize(joined)
	if err != nil {
		return "", err
	}
	if !contains(p.root, canonical) {
		return "", &EscapeError{Requested: rel}
	}
	return ValidatedPath(canonical), nil
}

// canonicalize resolves symlinks on the longest existing prefix of path and
// keeps the non-existent remainder as-is. Relative segments were already
// cleaned out by filepath.Join.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	var suffix []string
	dir := path
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		suffix = append([]string{filepath.Base(dir)}, suffix...)
		dir = parent

		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(append([]string{resolved}, suffix...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
}

// contains performs a path-segment-aware ancestor check. A bare string
// prefix would accept a sibling like /sandbox-evil under root /sandbox.
func contains(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
