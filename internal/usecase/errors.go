package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrorInvalidMessage ErrorCode = "INVALID_MESSAGE"
	ErrorInternal       ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether redelivering the same input can succeed.
// Bad input and bad messages fail the same way every time.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Code == ErrorInternal
}

// IsRetryable reports whether err is worth another attempt. Errors that are
// not *Error come from infrastructure and are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ucErr *Error
	if errors.As(err, &ucErr) {
		return ucErr.Retryable()
	}
	return true
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
