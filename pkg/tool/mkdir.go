package tool

import (
	"context"
	"fmt"
	"os"

	"github.com/cagefs/cagefs/pkg/sandbox"
)

// MkdirTool creates a new sandbox directory and any missing intermediates.
// It never merges into an existing path.
type MkdirTool struct {
	policy *sandbox.Policy
}

func (t *MkdirTool) Name() string { return "mkdir" }

func (t *MkdirTool) Description() string {
	return "Create a new directory"
}

func (t *MkdirTool) Schema() map[string]any {
	return pathSchema("Directory path to create (relative to sandbox)")
}

func (t *MkdirTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rel := stringArg(args, "path")
	target, err := t.policy.Resolve(rel)
	if err != nil {
		return "", err
	}
	if t.policy.ReadOnly() {
		return "", policyErrorf("Server is in read-only mode")
	}

	if _, err := os.Stat(target.String()); err == nil {
		return "", policyErrorf("Path already exists: %s", rel)
	} else if !os.IsNotExist(err) {
		return "", err
	}

	if err := os.MkdirAll(target.String(), 0o755); err != nil {
		return "", err
	}
	return fmt.Sprintf("Directory created successfully: %s", rel), nil
}
