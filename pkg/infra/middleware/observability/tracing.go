package observability

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kart-io/loan-advisor/pkg/infra/middleware/common"
	"github.com/kart-io/loan-advisor/pkg/infra/tracing"
)

// TracerName is the name of the tracer for HTTP middleware.
const TracerName = "github.com/kart-io/loan-advisor/pkg/infra/middleware"

// Tracing creates a server span per request.
//
// 从请求头提取 W3C Trace Context，span 名称为 "{method} {route}"，
// 状态码 >= 500 时标记为错误。skipPaths 中的路径不创建 span。
func Tracing(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if slices.Contains(skipPaths, req.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = req.URL.Path
		}
		ctx, span := tracing.StartServerSpan(req, TracerName, fmt.Sprintf("%s %s", req.Method, route),
			semconv.HTTPMethod(req.Method),
			semconv.URLPath(req.URL.Path),
			semconv.HTTPRoute(route),
			semconv.ServerAddress(req.Host),
		)
		defer span.End()

		if requestID := common.GetRequestID(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		c.Request = req.WithContext(ctx)
		tracing.InjectHeaders(ctx, c.Writer.Header())

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}
