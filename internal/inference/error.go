// Package inference classifies failures on the prediction path so callers can
// tell retryable fetch problems apart from bad input or runtime faults.
package inference

import (
	"errors"
	"fmt"
)

// Kind is the origin of a prediction failure.
type Kind string

const (
	// KindConfig marks missing or malformed local configuration.
	KindConfig Kind = "config"

	// KindFetch marks a failure retrieving a model artifact.
	KindFetch Kind = "fetch"

	// KindShape marks a request whose input cannot form the model's tensor.
	KindShape Kind = "shape"

	// KindRuntime marks a failure inside the inference runtime.
	KindRuntime Kind = "runtime"
)

// Error is a classified prediction failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap supports errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the request may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindFetch
}

// Wrap classifies err under kind. A nil err stays nil and an already
// classified err keeps its original kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	var ie *Error
	if errors.As(err, &ie) {
		return err
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// Shapef builds a shape error from a format string.
func Shapef(op, format string, args ...any) error {
	return &Error{Kind: KindShape, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, defaulting to KindRuntime for
// unclassified errors.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindRuntime
}

// IsRetryable reports whether err is a retryable classified error.
func IsRetryable(err error) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Retryable()
}
