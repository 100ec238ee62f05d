// Package sandbox confines filesystem access to a single directory tree.
// Every path handed to a tool is resolved through the sandbox before any
// policy check or filesystem call touches it.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
)

// Policy holds the rules every tool operation runs under: the canonical
// sandbox root, the maximum file size in bytes, the set of writable file
// extensions, and the read-only flag. A Policy is built once at startup and
// never mutated afterwards.
type Policy struct {
	root              string
	maxFileSize       int64
	allowedExtensions map[string]struct{}
	readOnly          bool
}

// NewPolicy creates the sandbox directory if it does not exist yet and
// canonicalizes it, so that containment checks compare against a root with
// no symlink or relative segments left in it.
func NewPolicy(root string, maxFileSize int64, allowedExtensions []string, readOnly bool) (*Policy, error) {
	if root == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize sandbox root: %w", err)
	}

	exts := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		exts[ext] = struct{}{}
	}
	return &Policy{
		root:              canonical,
		maxFileSize:       maxFileSize,
		allowedExtensions: exts,
		readOnly:          readOnly,
	}, nil
}

// Root returns the canonical absolute sandbox root.
func (p *Policy) Root() string { return p.root }

// MaxFileSize returns the per-file byte limit for reads and writes.
func (p *Policy) MaxFileSize() int64 { return p.maxFileSize }

// ReadOnly reports whether mutating operations are disabled.
func (p *Policy) ReadOnly() bool { return p.readOnly }

// ExtensionAllowed reports whether a file with the given extension may be
// written. Extensionless paths pass unconditionally; the allow-list only
// constrains paths that carry an extension.
func (p *Policy) ExtensionAllowed(ext string) bool {
	if ext == "" {
		return true
	}
	_, ok := p.allowedExtensions[ext]
	return ok
}
