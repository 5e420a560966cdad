package newsletter

import (
	"errors"
	"fmt"
	"strings"
)

// Application error codes.
const (
	ErrInvalid  = "invalid"
	ErrNotFound = "not_found"
	ErrConflict = "conflict"
	ErrInternal = "internal"
)

// Error is an application error carrying a machine code and a message that
// is safe to show to the caller.
type Error struct {
	Code    string
	Message string
	Op      string
	Err     error
}

// Errorf returns an *Error with the given code and a formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

const internalMessage = "An internal error has occurred."

// ErrorCode returns the first non-empty code along the chain of *Error
// values, ErrInternal when there is none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	for errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return ErrInternal
}

// ErrorMessage returns the first non-empty message along the chain of
// *Error values. Errors without one get a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	for errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return internalMessage
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op + ": ")
	}
	switch {
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case e.Code != "":
		fmt.Fprintf(&b, "<%s> %s", e.Code, e.Message)
	default:
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
