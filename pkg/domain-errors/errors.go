// Package domainerrors provides coded errors that carry a stable machine
// readable code across layer boundaries. Stores return infrastructure
// sentinels (pkg/platform/sentinel); services translate them into coded
// errors; the HTTP layer maps codes to status without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeUnauthenticated means no verifiable identity was presented.
	CodeUnauthenticated Code = "unauthenticated"

	// CodeTenantNotResolved means the identity verified but carried no
	// tenant claim. This is a hard failure: defaulting to "no tenant"
	// would silently disable isolation.
	CodeTenantNotResolved Code = "tenant_not_resolved"

	// CodeNotFound covers both genuinely missing rows and rows that exist
	// under a different tenant. Callers must not be able to tell the two
	// apart.
	CodeNotFound Code = "not_found"

	// CodeCrossTenantReference means a write tried to link two scoped
	// records with mismatched tenant identity. Surfaced as a validation
	// failure, never retried.
	CodeCrossTenantReference Code = "cross_tenant_reference"

	// CodeLimitExceeded means a subscription-plan resource cap was hit.
	// Distinct from isolation errors; retry only after a plan change.
	CodeLimitExceeded Code = "limit_exceeded"

	// CodeScopeBindingFailed means the session manager could not bind the
	// tenant directive to the transaction. Fatal to the unit of work and
	// a systemic alarm: it indicates storage-layer misconfiguration.
	CodeScopeBindingFailed Code = "scope_binding_failed"

	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// Error is a domain error with a classification code.
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

// New constructs a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
