// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	goerrors "github.com/go-errors/errors"
)

// PhaseError reports the pipeline phase that aborted a run.
type PhaseError struct {
	// Phase is "search", "extraction" or "analysis".
	Phase string
	Err   error
}

func (e *PhaseError) Error() string { return e.Phase + " phase: " + e.Err.Error() }

func (e *PhaseError) Unwrap() error { return e.Err }

// Message describes the failure without the underlying cause, which may
// carry upstream response bodies.
func (e *PhaseError) Message() string { return e.Phase + " phase failed" }

// phaseError wraps err with its phase and the caller's stack.
func phaseError(phase string, err error) error {
	return goerrors.Wrap(&PhaseError{Phase: phase, Err: err}, 1)
}
