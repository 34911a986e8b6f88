package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// OpError is a failure at a storage or remote boundary.
// It matches both its Kind sentinel and the wrapped cause.
type OpError struct {
	Kind error
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Storage wraps a local persistence failure. Nil stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Kind: ErrStorage, Op: op, Err: err}
}

// Remote wraps a remote backend failure. Nil stays nil.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Kind: ErrRemoteUnavailable, Op: op, Err: err}
}

// Op returns the boundary operation name carried by err, if any.
func Op(err error) string {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Op
	}
	return ""
}
