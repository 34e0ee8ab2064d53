package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a key or record does not exist.
var ErrNotFound = errors.New("not found")

// ErrHistoryUnderflow is returned when "back" has no entry to restore.
var ErrHistoryUnderflow = errors.New("no history entry to go back to")

// ErrUnknownState is returned when a state has no action table row.
var ErrUnknownState = errors.New("unknown state")

// ErrUnknownValidator is returned when a row names a validator that is not registered.
var ErrUnknownValidator = errors.New("unknown validator")

// DispatchErrorKind classifies a dispatch failure.
type DispatchErrorKind string

const (
	DispatchUnknownState     DispatchErrorKind = "unknown_state"
	DispatchUnknownValidator DispatchErrorKind = "unknown_validator"
	DispatchValidatorFailed  DispatchErrorKind = "validator_failed"
)

// DispatchError reports a cycle aborted before any session or history mutation.
type DispatchError struct {
	Kind      DispatchErrorKind
	State     string
	Validator string
	Err       error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case DispatchUnknownValidator:
		return fmt.Sprintf("dispatch %s: validator %q for state %q: %v", e.Kind, e.Validator, e.State, e.Err)
	case DispatchValidatorFailed:
		return fmt.Sprintf("dispatch %s: validator %q: %v", e.Kind, e.Validator, e.Err)
	default:
		return fmt.Sprintf("dispatch %s: state %q: %v", e.Kind, e.State, e.Err)
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
