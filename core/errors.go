package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by CheckpointStore.Load for unknown thread ids.
var ErrNotFound = errors.New("checkpoint not found")

// ErrInvalidRequest marks caller contract violations: a first message for a
// thread that already has a checkpoint, a continuation for an unknown
// thread, or a malformed payload. The request is rejected before any state
// mutation.
var ErrInvalidRequest = errors.New("invalid request")

// InvalidRequestf wraps ErrInvalidRequest with a formatted reason.
func InvalidRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// TransientError wraps a failure of an external model call that may succeed
// on retry (timeouts, provider 5xx). The engine retries model-backed nodes
// a bounded number of times before surfacing the turn as failed.
type TransientError struct {
	Err error
}

// Error implements error.
func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

// Unwrap exposes the underlying cause.
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PersistenceError wraps a checkpoint store failure. The in-progress turn is
// aborted with the previous checkpoint intact, so the caller may retry the
// whole turn idempotently.
type PersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigFaultError marks a workflow configuration fault: a node signalled
// continue but no outgoing edge predicate was satisfiable, or the turn
// exceeded the iteration guard. It is fatal for the turn, never retried,
// and logged for operator attention.
type ConfigFaultError struct {
	Node   string
	Reason string
}

// Error implements error.
func (e *ConfigFaultError) Error() string {
	return fmt.Sprintf("workflow configuration fault at node %q: %s", e.Node, e.Reason)
}
