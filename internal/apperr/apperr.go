// Package apperr defines the error taxonomy shared by the store, the tool
// handlers and the HTTP transport.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error. Kinds are strings so they serialize naturally
// into JSON error bodies.
type Kind string

const (
	// KindNotFound indicates a slug or id lookup missed.
	KindNotFound Kind = "NOT_FOUND"

	// KindValidation indicates missing or malformed arguments.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindConflict indicates a unique key is already taken.
	KindConflict Kind = "CONFLICT"

	// KindUpstream indicates the store or a third-party API failed.
	KindUpstream Kind = "UPSTREAM_ERROR"

	// KindConfiguration indicates a required credential or setting is absent.
	KindConfiguration Kind = "CONFIGURATION_ERROR"

	// KindTimeout indicates an outbound call exceeded its bound.
	KindTimeout Kind = "TIMEOUT"

	// KindInternal is the fallback for unclassified errors.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error without a cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports a missing record.
func NotFound(op, what, key string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("%s not found: %s", what, key)}
}

// Validation reports bad arguments.
func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, format, args...)
}

// Configuration reports a missing setting.
func Configuration(op, format string, args ...any) *Error {
	return New(KindConfiguration, op, format, args...)
}

// Upstream wraps a store or third-party failure. Deadline errors are
// reported as timeouts.
func Upstream(op string, err error, format string, args ...any) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, op, err, format, args...)
	}
	return Wrap(KindUpstream, op, err, format, args...)
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindConfiguration:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
