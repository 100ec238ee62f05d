package tool

import (
	"context"
	"fmt"
	"os"

	"github.com/cagefs/cagefs/pkg/sandbox"
)

// DeleteTool removes a single file or an empty directory. Recursive
// deletion is deliberately unsupported.
type DeleteTool struct {
	policy *sandbox.Policy
}

func (t *DeleteTool) Name() string { return "delete" }

func (t *DeleteTool) Description() string {
	return "Delete a file or an empty directory"
}

func (t *DeleteTool) Schema() map[string]any {
	return pathSchema("File or directory path to delete (relative to sandbox)")
}

func (t *DeleteTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rel := stringArg(args, "path")
	target, err := t.policy.Resolve(rel)
	if err != nil {
		return "", err
	}
	if t.policy.ReadOnly() {
		return "", policyErrorf("Server is in read-only mode")
	}

	info, err := os.Stat(target.String())
	if os.IsNotExist(err) {
		return "", stateErrorf("Path does not exist: %s", rel)
	}
	if err != nil {
		return "", err
	}

	switch {
	case info.Mode().IsRegular():
		if err := os.Remove(target.String()); err != nil {
			return "", err
		}
		return fmt.Sprintf("File deleted successfully: %s", rel), nil
	case info.IsDir():
		entries, err := os.ReadDir(target.String())
		if err != nil {
			return "", err
		}
		if len(entries) > 0 {
			return "", stateErrorf("Directory not empty: %s", rel)
		}
		if err := os.Remove(target.String()); err != nil {
			return "", err
		}
		return fmt.Sprintf("Directory deleted successfully: %s", rel), nil
	default:
		return "", stateErrorf("Unknown path type: %s", rel)
	}
}
