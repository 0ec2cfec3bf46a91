// Package domainerrors defines the coded error type shared by every layer.
//
// Services return *Error values carrying a Code that transports map to a
// status (see pkg/platform/httputil). Validation failures collected by
// pkg/platform/validation arrive as a single CodeValidation error holding the
// ordered list of violations.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeTooManyRequests    Code = "too_many_requests"
)

// Violation is one field-level validation failure.
// Key identifies the message for translation; Message is the default
// (English) rendering of the message with Args applied.
type Violation struct {
	Key     string `json:"key"`
	Message string `json:"message"`
	Args    []any  `json:"-"`
}

// Error is a coded error with an optional cause and violation list.
type Error struct {
	Code       Code
	Message    string
	Violations []Violation
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap annotates err with a code and message, keeping err as the cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Validation builds the aggregate error for one or more violations.
func Validation(violations ...Violation) *Error {
	msg := "validation failed"
	if len(violations) == 1 {
		msg = violations[0].Message
	}
	return &Error{Code: CodeValidation, Message: msg, Violations: violations}
}

// HasCode reports whether any *Error in err's chain has the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.cause
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost *Error in err's chain,
// or CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Violations returns the violations carried by err, if any.
func Violations(err error) []Violation {
	var e *Error
	if errors.As(err, &e) {
		return e.Violations
	}
	return nil
}

// Messages returns the default-locale messages of err's violations in order.
func Messages(err error) []string {
	violations := Violations(err)
	if len(violations) == 0 {
		return nil
	}
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Message)
	}
	return out
}
