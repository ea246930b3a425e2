package pipeline

import (
	"errors"
	"fmt"
)

// Stage names, in execution order.
const (
	StageTopology     = "topology"
	StagePlacement    = "placement"
	StageAddressing   = "addressing"
	StageConnectivity = "connectivity"
	StageSchedule     = "schedule"
	StageRegistry     = "registry"
	StageEmit         = "emit"
)

// StageError wraps a failure with the pipeline stage that detected it.
// The pipeline fails fast: the first stage error aborts the pass before
// anything is written.
type StageError struct {
	Stage string
	Cause error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *StageError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func stageError(stage string, cause error) error {
	return &StageError{Stage: stage, Cause: cause}
}
