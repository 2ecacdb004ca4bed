// Package apperr defines the error kinds returned by the business-rule
// layer. Every failure carries a stable Kind so handlers can translate it
// into a protocol status without inspecting message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure.
type Kind string

const (
	KindMissingField       Kind = "missing_field"
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindPreconditionFailed Kind = "precondition_failed"
	KindInternal           Kind = "internal"
)

// Sentinels for errors.Is comparisons against a kind.
var (
	ErrMissingField       = &Error{Kind: KindMissingField}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
)

// Error is a kinded failure with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same kind, so
// errors.Is(err, apperr.ErrNotFound) works for any not-found message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func MissingField(msg string) *Error       { return New(KindMissingField, msg) }
func InvalidInput(msg string) *Error       { return New(KindInvalidInput, msg) }
func NotFound(msg string) *Error           { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error          { return New(KindForbidden, msg) }
func PreconditionFailed(msg string) *Error { return New(KindPreconditionFailed, msg) }

// KindOf returns the kind of err, or KindInternal for anything that is not
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code a REST caller should return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMissingField, KindInvalidInput, KindPreconditionFailed:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
