package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(filepath.Join(t.TempDir(), "box"), 1024, []string{".txt"}, false)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return p
}

func TestResolveInsideRoot(t *testing.T) {
	p := newTestPolicy(t)

	got, err := p.Resolve("a/b.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(p.Root(), "a", "b.txt")
	if got.String() != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveRoot(t *testing.T) {
	p := newTestPolicy(t)

	got, err := p.Resolve(".")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.String() != p.Root() {
		t.Fatalf("expected root %s, got %s", p.Root(), got)
	}
}

func TestResolveRejectsDotDot(t *testing.T) {
	p := newTestPolicy(t)

	for _, rel := range []string{"..", "../escape.txt", "a/../../escape.txt", "a/b/../../../escape.txt"} {
		_, err := p.Resolve(rel)
		var escape *EscapeError
		if !errors.As(err, &escape) {
			t.Fatalf("expected escape error for %q, got %v", rel, err)
		}
		if escape.Requested != rel {
			t.Fatalf("expected requested path %q in error, got %q", rel, escape.Requested)
		}
	}
}

func TestResolveRejectsSiblingWithRootPrefix(t *testing.T) {
	// /parent/box-evil starts with the string /parent/box; the segment-aware
	// check must still reject it.
	p := newTestPolicy(t)
	evil := p.Root() + "-evil"
	if err := os.MkdirAll(evil, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := p.Resolve("../" + filepath.Base(evil) + "/f.txt")
	var escape *EscapeError
	if !errors.As(err, &escape) {
		t.Fatalf("expected escape error, got %v", err)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	p := newTestPolicy(t)
	outside := t.TempDir()
	link := filepath.Join(p.Root(), "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := p.Resolve("link/secret.txt")
	var escape *EscapeError
	if !errors.As(err, &escape) {
		t.Fatalf("expected escape error, got %v", err)
	}
}

func TestResolveFollowsSymlinkInsideRoot(t *testing.T) {
	p := newTestPolicy(t)
	target := filepath.Join(p.Root(), "real")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(p.Root(), "alias")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := p.Resolve("alias/f.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.String() != filepath.Join(target, "f.txt") {
		t.Fatalf("expected symlink resolved to %s, got %s", target, got)
	}
}

func TestResolveAbsoluteLookingPathStaysInside(t *testing.T) {
	p := newTestPolicy(t)

	got, err := p.Resolve("/etc/passwd")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(got.String(), p.Root()+string(os.PathSeparator)) {
		t.Fatalf("expected path under root, got %s", got)
	}
}

func TestResolveDeepMissingSuffix(t *testing.T) {
	p := newTestPolicy(t)

	got, err := p.Resolve("a/b/c/d.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.String() != filepath.Join(p.Root(), "a", "b", "c", "d.txt") {
		t.Fatalf("unexpected resolution %s", got)
	}
}
