package errors

import stderrors "errors"

// FromError converts any error to Errno.
// An Errno anywhere in the chain is returned as is; anything else is
// wrapped as ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode checks if the error chain contains an Errno with the given code.
func IsCode(err error, code int) bool {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code from an error.
// Returns -1 if the error is not an Errno.
func GetCode(err error) int {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code
	}
	return -1
}
