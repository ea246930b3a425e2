package topology

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrDanglingEdge    = errors.New("edge references undefined node")
	ErrMissingNodeID   = errors.New("node has no id attribute")
	ErrMissingEndpoint = errors.New("edge is missing source or target")
)

// ParseError is a syntax error with source location context.
type ParseError struct {
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("graph parse error at line %d: %s", e.Line, e.Msg)
}

// GraphError provides structured error information for validation failures.
type GraphError struct {
	Entity string // "node" or "edge"
	ID     int    // node id, or edge index for edges
	Line   int    // source line, 0 if unknown
	Cause  error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %d (line %d): %v", e.Entity, e.ID, e.Line, e.Cause)
	}
	return fmt.Sprintf("%s %d: %v", e.Entity, e.ID, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func nodeError(id, line int, cause error) error {
	return &GraphError{Entity: "node", ID: id, Line: line, Cause: cause}
}

func edgeError(index, line int, cause error) error {
	return &GraphError{Entity: "edge", ID: index, Line: line, Cause: cause}
}
