// Package apperrors defines the user-facing error values returned by stores,
// the invite lifecycle and the HTTP API.
//
// An *Error carries a message that is safe to show to a user and, optionally,
// the underlying cause. Error() returns only the message so backend detail
// never reaches the UI; callers log Cause() instead.
package apperrors

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeValidation      Code = "VALIDATION"
	CodeRemote          Code = "REMOTE"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus maps the code onto a response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorized, user-presentable error.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Cause returns the hidden underlying error, if any.
func (e *Error) Cause() error {
	return e.cause
}

// Is matches another *Error with the same code and message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func newError(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, cause: cause}
}

// Validation reports bad input caught before any remote call.
func Validation(msg string) *Error { return newError(CodeValidation, msg, nil) }

// Remote wraps a gateway failure behind a generic message.
func Remote(msg string, cause error) *Error { return newError(CodeRemote, msg, cause) }

// Unauthenticated reports a missing or invalid identity.
func Unauthenticated(msg string) *Error { return newError(CodeUnauthenticated, msg, nil) }

// Forbidden reports an identity lacking the needed role.
func Forbidden(msg string) *Error { return newError(CodeForbidden, msg, nil) }

// NotFound reports a missing entity.
func NotFound(msg string) *Error { return newError(CodeNotFound, msg, nil) }

// Conflict reports a terminal state conflict such as a used invitation.
func Conflict(msg string) *Error { return newError(CodeConflict, msg, nil) }

// Internal hides an unexpected failure.
func Internal(msg string, cause error) *Error { return newError(CodeInternal, msg, cause) }

// Message returns the user-facing text for err. Errors that are not *Error
// collapse to fallback so their detail stays hidden.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}

// CodeOf returns err's code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
