package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cagefs/cagefs/pkg/sandbox"
)

// Registry holds the fixed tool catalog and dispatches invocations. The
// catalog order never changes: list, read, write, mkdir, delete.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

// NewRegistry builds the catalog over a shared sandbox policy.
func NewRegistry(policy *sandbox.Policy) *Registry {
	tools := []Tool{
		&ListTool{policy: policy},
		&ReadTool{policy: policy},
		&WriteTool{policy: policy},
		&MkdirTool{policy: policy},
		&DeleteTool{policy: policy},
	}
	index := make(map[string]Tool, len(tools))
	for _, t := range tools {
		index[t.Name()] = t
	}
	return &Registry{tools: tools, index: index}
}

// List returns the catalog in its fixed order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Invoke dispatches one tool call and converts every outcome into a Result.
// Unknown tools, policy rejections, missing files and unexpected I/O faults
// all come back as text; a failed call never takes the server down.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Text: fmt.Sprintf("Error: %v", rec), IsError: true}
		}
	}()

	t, ok := r.index[name]
	if !ok {
		return Result{Text: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
	out, err := t.Execute(ctx, args)
	if err != nil {
		return Result{Text: resultText(err), IsError: true}
	}
	return Result{Text: out}
}

// resultText keeps the taxonomy visible in the payload: expected rejections
// speak for themselves, unexpected faults get an Error prefix.
func resultText(err error) string {
	var policyErr *PolicyError
	var stateErr *StateError
	var escapeErr *sandbox.EscapeError
	if errors.As(err, &policyErr) || errors.As(err, &stateErr) || errors.As(err, &escapeErr) {
		return err.Error()
	}
	return "Error: " + err.Error()
}

// MissingArgument reports the first required argument that is absent or not
// a string, according to the tool's declared schema. The transport treats
// this as the one argument-shape fault allowed to surface at protocol level.
func MissingArgument(t Tool, args map[string]any) (string, bool) {
	required, _ := t.Schema()["required"].([]string)
	for _, key := range required {
		if _, ok := args[key].(string); !ok {
			return key, true
		}
	}
	return "", false
}
