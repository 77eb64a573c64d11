// Package errors provides the unified error code system for loan-advisor.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): Service code, identifies the source service
//	BB  (00-99): Category code, identifies the error category
//	CCC (000-999): Sequence number within the category
//
// Every Errno carries the HTTP status and gRPC code it maps to, plus English
// and Chinese messages. Errors are compared by code, so a derived error
// (WithMessage, WithCause, WithDetails) still matches its base with errors.Is.
//
// Usage:
//
//	// Using predefined errors
//	return errors.ErrLoanProductNotFound.WithMessagef("product %s not found", id)
//
//	// Wrapping underlying errors
//	return errors.ErrDatabase.WithCause(err)
//
//	// Attaching structured details (returned as response data)
//	return errors.ErrLoanInvalidRequest.WithDetails(fieldErrors)
package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Errno represents a structured error with code and messages.
type Errno struct {
	// Code is the unique error code
	Code int `json:"code"`

	// HTTP is the HTTP status code to return
	HTTP int `json:"-"`

	// GRPCCode is the gRPC status code
	GRPCCode codes.Code `json:"-"`

	// MessageEN is the English error message
	MessageEN string `json:"message"`

	// MessageZH is the Chinese error message
	MessageZH string `json:"message_zh,omitempty"`

	cause   error
	details any
}

// New creates a new Errno with the given parameters.
func New(code int, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	return &Errno{
		Code:      code,
		HTTP:      httpStatus,
		GRPCCode:  grpcCode,
		MessageEN: messageEN,
		MessageZH: messageZH,
	}
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.MessageEN, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// clone 复制错误元信息，派生方法在副本上修改，注册的基础错误保持不变。
func (e *Errno) clone() *Errno {
	c := *e
	return &c
}

// WithCause creates a new Errno with the given cause.
func (e *Errno) WithCause(cause error) *Errno {
	c := e.clone()
	c.cause = cause
	return c
}

// WithMessage creates a new Errno with custom English message.
func (e *Errno) WithMessage(msg string) *Errno {
	c := e.clone()
	c.MessageEN = msg
	return c
}

// WithMessagef creates a new Errno with formatted English message.
func (e *Errno) WithMessagef(format string, args ...any) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails creates a new Errno carrying structured details.
// Details are returned to the client as the response data.
func (e *Errno) WithDetails(details any) *Errno {
	c := e.clone()
	c.details = details
	return c
}

// Details returns the structured details, or nil.
func (e *Errno) Details() any {
	return e.details
}

// Message returns the message based on language.
func (e *Errno) Message(lang string) string {
	switch lang {
	case "zh", "zh-CN", "zh_CN":
		if e.MessageZH != "" {
			return e.MessageZH
		}
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status code.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns the gRPC status code.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode != codes.OK {
		return e.GRPCCode
	}
	return codes.Internal
}

// Is checks if this error matches the target error code.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

// Format implements fmt.Formatter.
func (e *Errno) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "errno %d [HTTP %d, gRPC %s]: %s", e.Code, e.HTTP, e.GRPCCode.String(), e.MessageEN)
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\ncaused by: %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}
