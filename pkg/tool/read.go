package tool

import (
	"context"
	"os"
	"unicode/utf8"

	"github.com/cagefs/cagefs/pkg/sandbox"
)

// ReadTool returns the UTF-8 contents of a sandbox file.
type ReadTool struct {
	policy *sandbox.Policy
}

func (t *ReadTool) Name() string { return "read" }

func (t *ReadTool) Description() string {
	return "Read the contents of a file"
}

func (t *ReadTool) Schema() map[string]any {
	return pathSchema("File path to read (relative to sandbox)")
}

func (t *ReadTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rel := stringArg(args, "path")
	target, err := t.policy.Resolve(rel)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target.String())
	if os.IsNotExist(err) {
		return "", stateErrorf("File does not exist: %s", rel)
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", stateErrorf("Path is not a file: %s", rel)
	}
	// Size is checked before reading so an oversized file is never pulled
	// into memory.
	if info.Size() > t.policy.MaxFileSize() {
		return "", policyErrorf("File too large (max %d bytes)", t.policy.MaxFileSize())
	}

	data, err := os.ReadFile(target.String())
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", stateErrorf("File contains non-UTF-8 content: %s", rel)
	}
	return string(data), nil
}
