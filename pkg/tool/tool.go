// Package tool implements the filesystem operations exposed over MCP and
// the dispatcher that routes invocations to them. Every operation resolves
// its path through the sandbox before touching policy or disk, and every
// outcome — success, rejection, I/O failure — comes back as a Result.
package tool

import "context"

// Tool is one named, schema-described operation.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Result is the uniform outcome of an invocation: a text payload, flagged
// when the operation was rejected or failed. Faults never cross this
// boundary in any other shape.
type Result struct {
	Text    string
	IsError bool
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func pathSchema(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]string{"type": "string", "description": desc},
		},
		"required": []string{"path"},
	}
}
