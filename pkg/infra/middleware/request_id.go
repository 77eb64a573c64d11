// Package middleware wires the HTTP middleware chain for gin servers.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/loan-advisor/pkg/infra/middleware/common"
	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
)

// RequestID returns a middleware that adds a unique request ID to each request.
// The request ID is added to:
//   - Response header (X-Request-ID)
//   - Request context (can be retrieved with common.GetRequestID)
func RequestID() gin.HandlerFunc {
	return RequestIDWithOptions(*mwopts.NewRequestIDOptions())
}

// RequestIDWithOptions returns a RequestID middleware with custom options.
func RequestIDWithOptions(opts mwopts.RequestIDOptions) gin.HandlerFunc {
	header := opts.Header
	if header == "" {
		header = common.HeaderXRequestID
	}
	generate := common.GenerateRequestID
	if opts.GeneratorType == mwopts.GeneratorULID {
		generate = common.GenerateULID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(header)
		if requestID == "" {
			requestID = generate()
		}

		c.Header(header, requestID)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
