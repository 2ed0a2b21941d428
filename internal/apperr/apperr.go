package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an application error for propagation and HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientFunds
	KindInvalidCredentials
	KindExternalAdapter
	KindInvariant
)

// Error is a business error carrying a classification. All business-rule
// failures abort their enclosing transaction; handlers map Kind to a status.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error classification
func (e *Error) Kind() Kind { return e.kind }

// StatusCode returns the HTTP-equivalent status for the error
func (e *Error) StatusCode() int {
	switch e.kind {
	case KindValidation, KindInsufficientFunds, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalAdapter:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a caller input that violates a business rule
func Validation(msg string) error {
	return &Error{kind: KindValidation, msg: msg}
}

// NotFound reports a referenced entity that does not exist
func NotFound(msg string) error {
	return &Error{kind: KindNotFound, msg: msg}
}

// InsufficientFunds reports a ledger balance below the required minimum
func InsufficientFunds(msg string) error {
	return &Error{kind: KindInsufficientFunds, msg: msg}
}

// InvalidCredentials reports a failed passphrase or key check
func InvalidCredentials(msg string) error {
	return &Error{kind: KindInvalidCredentials, msg: msg}
}

// ExternalAdapter wraps a failure from a collaborating system
func ExternalAdapter(err error, msg string) error {
	return &Error{kind: KindExternalAdapter, msg: msg, err: err}
}

// Invariant reports a broken internal invariant. Indicates a bug, not a user
// error; must be logged loudly and never swallowed.
func Invariant(msg string) error {
	return &Error{kind: KindInvariant, msg: msg}
}

// KindOf extracts the Kind from an error chain, KindUnknown if absent
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindUnknown
}

// Is reports whether err carries the given Kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusOf maps an error chain to an HTTP status code
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}
