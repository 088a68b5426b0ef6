package core

import (
	"errors"
	"fmt"
)

// InputError marks failures caused by the user's input (missing file,
// cancelled selection, wrong archive password) as opposed to internal errors.
// Callers show the wrapped message verbatim for input errors and a generic
// message for everything else.
type InputError struct {
	err error
}

// NewInputError wraps err as a user-input error.
func NewInputError(err error) *InputError {
	return &InputError{err: err}
}

// InputErrorf formats a new user-input error.
func InputErrorf(format string, args ...any) *InputError {
	return &InputError{err: fmt.Errorf(format, args...)}
}

func (e *InputError) Error() string { return e.err.Error() }

func (e *InputError) Unwrap() error { return e.err }

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
