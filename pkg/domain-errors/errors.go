// Package domainerrors provides coded errors for domain and service layers.
//
// Services attach a Code so transports can translate failures without string
// matching, and callers can branch with HasCode. Infrastructure layers return
// sentinel errors (pkg/platform/sentinel) instead; services translate those
// into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for programmatic handling.
type Code string

const (
	// CodeInvalidInput marks malformed input rejected at a trust boundary.
	CodeInvalidInput Code = "invalid_input"

	// CodeValidation marks a request that parsed but failed domain validation.
	CodeValidation Code = "validation_failed"

	// CodeNotFound marks a missing log entry, verification, or rotation.
	CodeNotFound Code = "not_found"

	// CodeAlreadyReviewed marks a decision attempt on a verification that has
	// already left PENDING. Losing a concurrent decide race reports this too.
	CodeAlreadyReviewed Code = "already_reviewed"

	// CodeInvalidTransition marks a transition that violates the state machine
	// contract, e.g. a rejection without a reason.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeUnauthorized marks an actor lacking the required capability.
	CodeUnauthorized Code = "unauthorized"

	// CodeTimeout marks a deadline exceeded while computing or loading.
	CodeTimeout Code = "timeout"

	// CodeUnavailable marks a temporarily unavailable collaborator.
	CodeUnavailable Code = "unavailable"

	// CodeConflict marks a uniqueness or concurrent-update conflict.
	CodeConflict Code = "conflict"

	// CodeInternal marks an unexpected failure. Details stay server-side.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Wrapped causes stay reachable via errors.Is/As.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error with a code and message.
// Returns nil when err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
