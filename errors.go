package runnerdash

import (
	"errors"
	"fmt"
)

// Common errors returned by runnerdash operations
var (
	// ErrDiscovery indicates the discovery root could not be resolved or read
	ErrDiscovery = errors.New("runnerdash: discovery failed")

	// ErrInvalidAction indicates a control verb outside {start, stop, restart}
	ErrInvalidAction = errors.New("runnerdash: action not allowed")

	// ErrServiceName indicates a service name with a disallowed character
	// or without the actions.runner. namespace prefix
	ErrServiceName = errors.New("runnerdash: malformed service name")

	// ErrUnsafePath indicates a path containing shell metacharacters that
	// must not reach a process-matching pattern
	ErrUnsafePath = errors.New("runnerdash: path contains shell metacharacters")

	// ErrSpawn indicates the control mechanism could not be launched at all,
	// as opposed to launching and exiting non-zero
	ErrSpawn = errors.New("runnerdash: control process could not be started")

	// ErrStopTimeout indicates a restart's termination wait exceeded its
	// ceiling before the old process exited
	ErrStopTimeout = errors.New("runnerdash: timed out waiting for runner to exit")
)

// ValidationError reports a value rejected by the pre-spawn validation
// gate. It is always raised before any subprocess is created.
type ValidationError struct {
	// Field names what was rejected: "action", "service" or "path"
	Field string
	// Value is the rejected value
	Value string
	// Err is the sentinel describing the rule that failed
	Err error
}

// Error returns a formatted error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %q", e.Err, e.Field, e.Value)
}

// Unwrap returns the sentinel for error chain inspection
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ControlError reports a failed control action. Three variants are
// distinguishable through errors.Is on the wrapped error:
//
//   - the mechanism ran and exited non-zero: Err is nil or the exit error,
//     Output carries the captured diagnostic text
//   - the mechanism could not be launched: Err wraps ErrSpawn
//   - a restart's termination wait timed out: Err wraps ErrStopTimeout
type ControlError struct {
	// Service is the service name of the runner being controlled
	Service string
	// Action is the verb that failed
	Action Action
	// Output is the captured diagnostic output, if the mechanism ran
	Output string
	// Err is the underlying error, if any
	Err error
}

// Error returns a formatted error message
func (e *ControlError) Error() string {
	msg := fmt.Sprintf("runnerdash: %s %s failed", e.Action, e.Service)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *ControlError) Unwrap() error {
	return e.Err
}
