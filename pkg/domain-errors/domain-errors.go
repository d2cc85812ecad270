package domainerrors

import (
	"errors"
	"time"
)

// Code represents a credential-layer error category independent of transport.
// These codes describe what went wrong in auth terms, not HTTP terms.
type Code string

const (
	// CodeUnauthorized marks a bad, expired, or missing credential. Always
	// fatal to the current operation, sometimes fatal to the whole session.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a valid credential with insufficient scope.
	CodeForbidden Code = "forbidden"
	// CodeRateLimited marks API quota exhaustion; ResetAt carries the
	// server-declared reset time.
	CodeRateLimited Code = "rate_limited"
	CodeNotFound    Code = "not_found"
	// CodeCrypto marks malformed key material.
	CodeCrypto       Code = "crypto_error"
	CodeInvalidInput Code = "invalid_input"
	// CodeAPI is the catch-all for unexpected API responses; HTTPStatus
	// carries the original status code.
	CodeAPI      Code = "api_error"
	CodeInternal Code = "internal_error"
)

// Error wraps credential or API failures with a stable code.
// It is transport-agnostic and shared across client, service, and HTTP layers.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int       // populated for CodeAPI
	ResetAt    time.Time // populated for CodeRateLimited
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, HTTPStatus: existing.HTTPStatus, ResetAt: existing.ResetAt, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// RateLimited creates a rate-limit error carrying the quota reset time.
func RateLimited(resetAt time.Time) error {
	return &Error{Code: CodeRateLimited, Message: "api rate limit exceeded", ResetAt: resetAt}
}

// API creates a catch-all error for an unexpected HTTP status.
func API(status int, msg string) error {
	return &Error{Code: CodeAPI, Message: msg, HTTPStatus: status}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
