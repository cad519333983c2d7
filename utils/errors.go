package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures of business operations.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidStatus
	KindInvalidTransition
	KindValidation
	KindUnauthorized
)

var kindNames = map[ErrorKind]string{
	KindInternal:          "internal",
	KindNotFound:          "not_found",
	KindConflict:          "conflict",
	KindForbidden:         "forbidden",
	KindInvalidStatus:     "invalid_status",
	KindInvalidTransition: "invalid_transition",
	KindValidation:        "validation",
	KindUnauthorized:      "unauthorized",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// HTTPStatus maps the kind to the status code returned to API callers.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidStatus, KindInvalidTransition, KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the error type returned by services.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, format string, args ...interface{}) error {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return newAppError(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newAppError(KindConflict, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newAppError(KindForbidden, format, args...)
}

func InvalidStatus(format string, args ...interface{}) error {
	return newAppError(KindInvalidStatus, format, args...)
}

func InvalidTransition(from, to string) error {
	return newAppError(KindInvalidTransition, "invalid status transition from %q to %q", from, to)
}

func Validation(format string, args ...interface{}) error {
	return newAppError(KindValidation, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newAppError(KindUnauthorized, format, args...)
}

// Internal wraps an unexpected failure. The message is safe to show to
// callers, the wrapped error is only logged.
func Internal(err error, format string, args ...interface{}) error {
	return &AppError{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, KindInternal for errors that are not an
// AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
