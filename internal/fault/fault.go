// Package fault defines the error kinds a command can terminate with.
//
// Every check in the processor is local and fails the command immediately
// with one of these codes. Nothing inside this module retries; a caller that
// wants a retry submits a new command.
package fault

import (
	"errors"
	"fmt"
)

// Code categorizes command failures.
type Code string

const (
	// MissingAuthentication: the caller cell is not an authenticated signer.
	MissingAuthentication Code = "MISSING_AUTHENTICATION"

	// AuthorizationMismatch: a derived address check or a cell ownership
	// check failed.
	AuthorizationMismatch Code = "AUTHORIZATION_MISMATCH"

	// DecodeFailure: payload or stored bytes match no known schema.
	DecodeFailure Code = "DECODE_FAILURE"

	// ExternalServiceIdentityMismatch: the supplied value-transfer service is
	// not the configured one.
	ExternalServiceIdentityMismatch Code = "EXTERNAL_SERVICE_IDENTITY_MISMATCH"

	// ExternalTransferFailure: the value-transfer call reported failure.
	ExternalTransferFailure Code = "EXTERNAL_TRANSFER_FAILURE"

	// InvalidArgument: unrecognized tier, malformed numeric field, bad
	// account list and similar.
	InvalidArgument Code = "INVALID_ARGUMENT"

	// CapacityExceeded: record larger than the target cell.
	CapacityExceeded Code = "CAPACITY_EXCEEDED"
)

// Error is a command failure with structured fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Account is the base58 address of the cell involved, if any.
	Account string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Account != "" {
		msg = fmt.Sprintf("%s (account=%s)", msg, e.Account)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error carrying an underlying cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithAccount returns a copy of e naming the offending account.
func (e *Error) WithAccount(account fmt.Stringer) *Error {
	cp := *e
	cp.Account = account.String()
	return &cp
}

// CodeOf extracts the Code from err. Uses errors.As to handle wrapped errors.
// Returns "" for nil and for errors that are not an *Error.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
