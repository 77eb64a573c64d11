// Package observability provides observability middleware.
package observability

import (
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/pkg/infra/middleware/common"
	"github.com/kart-io/loan-advisor/pkg/infra/tracing"
	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
)

// fieldsPool is a sync.Pool for reusing fields slices to reduce heap allocations.
var fieldsPool = sync.Pool{
	New: func() any {
		s := make([]any, 0, 16)
		return &s
	},
}

func acquireFields() *[]any {
	return fieldsPool.Get().(*[]any)
}

func releaseFields(fields *[]any) {
	*fields = (*fields)[:0]
	fieldsPool.Put(fields)
}

// Logger returns a middleware that logs HTTP requests with default options.
func Logger() gin.HandlerFunc {
	return LoggerWithOptions(*mwopts.NewLoggerOptions())
}

// LoggerWithOptions 返回一个按配置跳过探活路径的访问日志中间件。
func LoggerWithOptions(opts mwopts.LoggerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		path := req.URL.Path

		if slices.Contains(opts.SkipPaths, path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := acquireFields()
		defer releaseFields(fields)

		*fields = append(*fields,
			"method", req.Method,
			"path", path,
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP(),
			"latency", latency.String(),
			"latency_ms", latency.Milliseconds(),
		)
		ctx := c.Request.Context()
		if requestID := common.GetRequestID(ctx); requestID != "" {
			*fields = append(*fields, "request_id", requestID)
		}
		if traceID := tracing.TraceIDFromContext(ctx); traceID != "" {
			*fields = append(*fields, "trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			*fields = append(*fields, "errors", c.Errors.String())
		}
		logger.Infow("HTTP Request", (*fields)...)
	}
}
