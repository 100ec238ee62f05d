package tool

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cagefs/cagefs/pkg/sandbox"
)

// ListTool enumerates the immediate children of a sandbox directory.
type ListTool struct {
	policy *sandbox.Policy
}

func (t *ListTool) Name() string { return "list" }

func (t *ListTool) Description() string {
	return "List files and directories in a given path"
}

func (t *ListTool) Schema() map[string]any {
	return pathSchema("Directory path to list (relative to sandbox)")
}

func (t *ListTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rel := stringArg(args, "path")
	target, err := t.policy.Resolve(rel)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target.String())
	if os.IsNotExist(err) {
		return "", stateErrorf("Path does not exist: %s", rel)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", stateErrorf("Path is not a directory: %s", rel)
	}

	// os.ReadDir returns entries sorted by name, which keeps listings
	// deterministic across calls.
	entries, err := os.ReadDir(target.String())
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		kind, size := "file", "-"
		if entry.IsDir() {
			kind = "dir"
		} else {
			fi, err := entry.Info()
			if err != nil {
				return "", err
			}
			size = strconv.FormatInt(fi.Size(), 10)
		}
		lines = append(lines, fmt.Sprintf("%-4s %10s %s", kind, size, entry.Name()))
	}
	return fmt.Sprintf("Contents of %s:\n%s", rel, strings.Join(lines, "\n")), nil
}
