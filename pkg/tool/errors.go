package tool

import "fmt"

// PolicyError is a rejection driven by configured rules (read-only mode,
// size limits, the extension allow-list) rather than by filesystem state.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

// StateError is a rejection driven by what is currently on disk: missing
// paths, wrong entry kinds, non-empty directories, non-text content.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return e.Reason }

func policyErrorf(format string, args ...any) error {
	return &PolicyError{Reason: fmt.Sprintf(format, args...)}
}

func stateErrorf(format string, args ...any) error {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}
