// Package service implements C6: one service per use case, each consuming
// repositories through the DI container, validating input, consulting
// policy, delegating to repositories, and emitting audit events. Services
// return plain data and never touch transport — internal/httpapi maps
// these errors to HTTP status codes.
package service

import (
	"errors"
	"fmt"
)

// ErrValidation is returned for bad shape, out-of-range, or unknown-enum
// input, before any repository call is made.
var ErrValidation = errors.New("validation error")

// ErrInvalidTransition is returned when a state machine transition (Session
// or Job) is attempted out of order — e.g. archiving a session that was
// never finalized.
var ErrInvalidTransition = errors.New("invalid transition")

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TransitionError wraps ErrInvalidTransition with the attempted states.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %q to %q", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func transitionErr(entity, from, to string) error {
	return &TransitionError{Entity: entity, From: from, To: to}
}

// IsValidation reports whether err is (or wraps) ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsInvalidTransition reports whether err is (or wraps) ErrInvalidTransition.
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }
