// Package outcome is the result taxonomy shared by the academy services.
//
// Expected domain conditions (duplicate, missing, precondition failures)
// are returned as *Error values carrying a Kind. Anything else a service
// returns is classified as KindError by KindOf.
package outcome

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies the result of a core operation.
type Kind string

const (
	Success         Kind = "success"
	NotFound        Kind = "notFound"
	Conflict        Kind = "conflict"
	BadRequest      Kind = "bad_request"
	ValidationError Kind = "validation_error"
	KindError       Kind = "error"
)

// Error is a typed domain failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing cohort, week, task, or submission.
func NotFoundf(format string, args ...any) *Error { return newErr(NotFound, format, args...) }

// Conflictf reports a uniqueness violation.
func Conflictf(format string, args ...any) *Error { return newErr(Conflict, format, args...) }

// BadRequestf reports a violated temporal or content precondition.
func BadRequestf(format string, args ...any) *Error { return newErr(BadRequest, format, args...) }

// Invalidf reports structurally invalid input.
func Invalidf(format string, args ...any) *Error { return newErr(ValidationError, format, args...) }

// Wrap marks err as an unclassified failure while keeping it inspectable.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var oe *Error
	if errors.As(err, &oe) {
		return err
	}
	return &Error{Kind: KindError, Message: msg, Err: err}
}

// KindOf classifies err. nil is Success; untyped errors are KindError.
func KindOf(err error) Kind {
	if err == nil {
		return Success
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindError
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

// Message returns the client-safe message for err. Unclassified errors
// never leak their internals.
func Message(err error) string {
	var oe *Error
	if errors.As(err, &oe) && oe.Kind != KindError {
		return oe.Message
	}
	if err == nil {
		return ""
	}
	return "internal error"
}

// HTTPStatus maps a Kind to the status code handlers respond with.
func HTTPStatus(k Kind) int {
	switch k {
	case Success:
		return http.StatusOK
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case BadRequest:
		return http.StatusBadRequest
	case ValidationError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
