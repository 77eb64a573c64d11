package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// validateCodeParams validates service, category, and sequence parameters.
func validateCodeParams(service, category, sequence int) {
	if service < 0 || service > 99 {
		panic(fmt.Sprintf("errors: service code must be 0-99, got %d", service))
	}
	if category < 0 || category > 99 {
		panic(fmt.Sprintf("errors: category code must be 0-99, got %d", category))
	}
	if sequence < 0 || sequence > 999 {
		panic(fmt.Sprintf("errors: sequence must be 0-999, got %d", sequence))
	}
}

// newError creates and registers a new Errno.
// Panics on invalid parameters or a duplicate code.
func newError(service, category, sequence int, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	validateCodeParams(service, category, sequence)
	return Register(New(MakeCode(service, category, sequence), httpStatus, grpcCode, messageEN, messageZH))
}

// NewRequestErr creates a request/validation error (400).
func NewRequestErr(service, sequence int, en, zh string) *Errno {
	return newError(service, CategoryRequest, sequence, http.StatusBadRequest, codes.InvalidArgument, en, zh)
}

// NewNotFoundErr creates a not found error (404).
func NewNotFoundErr(service, sequence int, en, zh string) *Errno {
	return newError(service, CategoryResource, sequence, http.StatusNotFound, codes.NotFound, en, zh)
}

// NewRateLimitErr creates a rate limit error (429).
func NewRateLimitErr(service, sequence int, en, zh string) *Errno {
	return newError(service, CategoryRateLimit, sequence, http.StatusTooManyRequests, codes.ResourceExhausted, en, zh)
}

// NewInternalErr creates an internal error (500).
func NewInternalErr(service, sequence int, en, zh string) *Errno {
	return newError(service, CategoryInternal, sequence, http.StatusInternalServerError, codes.Internal, en, zh)
}

// NewNetworkErr creates an upstream/network error (502).
func NewNetworkErr(service, sequence int, en, zh string) *Errno {
	return newError(service, CategoryNetwork, sequence, http.StatusBadGateway, codes.Unavailable, en, zh)
}

// NewConfigErr creates a configuration error that leaves the service
// unavailable (503).
func NewConfigErr(service, sequence int, en, zh string) *Errno {
	return newError(service, CategoryConfig, sequence, http.StatusServiceUnavailable, codes.FailedPrecondition, en, zh)
}
