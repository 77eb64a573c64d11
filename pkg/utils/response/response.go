// Package response provides unified API response structures.
// Every HTTP endpoint answers with the same envelope so clients can branch on
// Code without inspecting the HTTP status.
package response

import (
	"net/http"
	"sync"

	"github.com/kart-io/loan-advisor/pkg/utils/errors"
)

// Response is the unified API response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// HTTPCode is the HTTP status code (optional, for client convenience)
	HTTPCode int `json:"http_code,omitempty"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Data contains the response payload; for errors it carries the details
	Data any `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is the response timestamp (Unix milliseconds)
	Timestamp int64 `json:"timestamp,omitempty"`
}

var responsePool = sync.Pool{
	New: func() any {
		return new(Response)
	},
}

// Acquire returns a zeroed Response from the pool.
func Acquire() *Response {
	return responsePool.Get().(*Response)
}

// Release resets the response and returns it to the pool.
// The response must not be used after Release.
func Release(r *Response) {
	if r == nil {
		return
	}
	*r = Response{}
	responsePool.Put(r)
}

// Success creates a successful response with data.
func Success(data any) *Response {
	r := Acquire()
	r.Code = 0
	r.HTTPCode = http.StatusOK
	r.Message = "success"
	r.Data = data
	return r
}

// Err creates an error response from an Errno.
// Details attached with WithDetails become the response data.
func Err(e *errors.Errno) *Response {
	return ErrWithLang(e, "")
}

// ErrWithLang creates an error response with language-specific message.
func ErrWithLang(e *errors.Errno, lang string) *Response {
	if e == nil {
		return Success(nil)
	}
	r := Acquire()
	r.Code = e.Code
	r.HTTPCode = e.HTTPStatus()
	r.Message = e.Message(lang)
	r.Data = e.Details()
	return r
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// WithTimestamp adds timestamp to the response.
func (r *Response) WithTimestamp(timestamp int64) *Response {
	r.Timestamp = timestamp
	return r
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Code == 0
}

// HTTPStatus returns the HTTP status code for this response.
func (r *Response) HTTPStatus() int {
	if r.HTTPCode != 0 {
		return r.HTTPCode
	}
	if r.Code == 0 {
		return http.StatusOK
	}
	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	switch errors.GetCategory(r.Code) {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case errors.CategoryNetwork:
		return http.StatusBadGateway
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
