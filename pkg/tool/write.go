package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cagefs/cagefs/pkg/sandbox"
)

// WriteTool writes the full contents of a sandbox file, creating missing
// parent directories along the way.
type WriteTool struct {
	policy *sandbox.Policy
}

func (t *WriteTool) Name() string { return "write" }

func (t *WriteTool) Description() string {
	return "Write content to a file"
}

func (t *WriteTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]string{"type": "string", "description": "File path to write (relative to sandbox)"},
			"content": map[string]string{"type": "string", "description": "Content to write to the file"},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rel := stringArg(args, "path")
	content := stringArg(args, "content")

	target, err := t.policy.Resolve(rel)
	if err != nil {
		return "", err
	}
	if t.policy.ReadOnly() {
		return "", policyErrorf("Server is in read-only mode")
	}
	if ext := filepath.Ext(target.String()); !t.policy.ExtensionAllowed(ext) {
		return "", policyErrorf("File extension not allowed: %s", ext)
	}
	if int64(len(content)) > t.policy.MaxFileSize() {
		return "", policyErrorf("Content too large (max %d bytes)", t.policy.MaxFileSize())
	}

	if err := os.MkdirAll(filepath.Dir(target.String()), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target.String(), []byte(content), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("File written successfully: %s", rel), nil
}
