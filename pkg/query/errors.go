package query

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameter marks a referenced parameter that is absent
	// from the caller-supplied parameter map.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrVariableNotFound marks an assignment-table lookup miss during
	// variable resolution.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrCircularDependency marks variable resolution exceeding the
	// recursion depth bound.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrWriteOperation marks a query containing a write or mutation
	// construct, which read-only evaluation refuses before any network
	// call.
	ErrWriteOperation = errors.New("write operation in read-only query")
)

// CompileError reports an AST shape that cannot be expressed as a tool
// pipeline. Compilation never touches the network, so a CompileError
// guarantees no remote state was created.
type CompileError struct {
	Reason string
	Err    error // underlying sentinel, when one applies
}

func (e *CompileError) Error() string { return e.Reason }

func (e *CompileError) Unwrap() error { return e.Err }

func compileErrorf(format string, args ...any) *CompileError {
	return &CompileError{Reason: fmt.Sprintf(format, args...)}
}

// ResolutionError reports a variable chain that cannot be resolved:
// either the variable is not assigned or the chain is cyclic.
type ResolutionError struct {
	Variable string
	Err      error // ErrVariableNotFound or ErrCircularDependency
}

func (e *ResolutionError) Error() string {
	if errors.Is(e.Err, ErrCircularDependency) {
		return fmt.Sprintf("circular dependency or too deep recursion detected at %q", e.Variable)
	}
	return fmt.Sprintf("variable %q not found", e.Variable)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
