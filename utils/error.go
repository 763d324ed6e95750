package utils

import (
	"errors"
	"fmt"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// ConfigurationError reports a missing or malformed Configuration row.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return e.Message
	}
	return fmt.Sprintf("configuration %q: %s", e.Key, e.Message)
}

// ValidationError reports input that fails a business rule before any
// write happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports a status change not present in the
// document's transition table.
type InvalidTransitionError struct {
	Doc     string
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("invalid %s transition from %q to %q (allowed: %s)", e.Doc, e.From, e.To, allowed)
}

// TerminalStateError reports an attempt to move a document out of a
// status that has no outgoing transitions.
type TerminalStateError struct {
	Doc    string
	Status string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s is in terminal state %q and cannot change status", e.Doc, e.Status)
}

// PreconditionError reports a transition whose table entry exists but
// whose guard condition fails.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func NewPreconditionError(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// PermissionDeniedError reports an operation the caller may never
// perform on the record in its current state, e.g. deleting a document
// that has left draft.
type PermissionDeniedError struct {
	Message string
}

func (e *PermissionDeniedError) Error() string { return e.Message }

func NewPermissionDeniedError(format string, args ...any) error {
	return &PermissionDeniedError{Message: fmt.Sprintf(format, args...)}
}
