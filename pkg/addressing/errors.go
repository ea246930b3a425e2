package addressing

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrSubnetExhausted     = errors.New("subnet exhausted")
	ErrBlockSpaceExhausted = errors.New("no unminted blocks remain")
	ErrDuplicateIP         = errors.New("address already allocated")
)

// AllocError provides structured error information for allocation failures.
type AllocError struct {
	AgentID string
	Rule    string // which chain rule failed: "group", "node", "as", "geo", "fallback"
	Detail  string // subnet group, AS id or region name
	Cause   error
}

// Error implements the error interface.
func (e *AllocError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("allocate address for agent %s (rule %s, %s): %v", e.AgentID, e.Rule, e.Detail, e.Cause)
	}
	return fmt.Sprintf("allocate address for agent %s (rule %s): %v", e.AgentID, e.Rule, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AllocError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *AllocError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func allocError(agentID, rule, detail string, cause error) error {
	return &AllocError{AgentID: agentID, Rule: rule, Detail: detail, Cause: cause}
}
