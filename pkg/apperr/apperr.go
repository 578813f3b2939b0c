// Package apperr classifies the error kinds this module distinguishes
// (InvalidInput, Infeasible, Timeout, StateTransitionRejected, NotFound,
// Conflict, IntegrityError) so that every package in this module reports
// failures through one shared taxonomy instead of ad hoc sentinel values
// per package.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the seven error classes this module distinguishes.
type Kind string

const (
	InvalidInput            Kind = "InvalidInput"
	Infeasible               Kind = "Infeasible"
	Timeout                  Kind = "Timeout"
	StateTransitionRejected  Kind = "StateTransitionRejected"
	NotFound                 Kind = "NotFound"
	Conflict                 Kind = "Conflict"
	IntegrityError           Kind = "IntegrityError"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string

	// Populated only for StateTransitionRejected.
	CurrentState   string
	AllowedTargets []string

	Err error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err (or a wrapped cause) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok && ae.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// New creates a classified error with no wrapped cause.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error wrapping an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewStateTransitionRejected builds the StateTransitionRejected variant
// carrying the current state and the set of allowed target states.
func NewStateTransitionRejected(current string, allowed []string, format string, args ...interface{}) *Error {
	return &Error{
		Kind:           StateTransitionRejected,
		Message:        fmt.Sprintf(format, args...),
		CurrentState:   current,
		AllowedTargets: allowed,
	}
}
