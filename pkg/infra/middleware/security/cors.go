// Package security provides security middleware.
package security

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
)

// CORS returns a middleware that adds CORS headers with default options.
func CORS() gin.HandlerFunc {
	return CORSWithOptions(*mwopts.NewCORSOptions())
}

// CORSWithOptions returns a CORS middleware with CORSOptions.
// 配置错误在启动时失败。
func CORSWithOptions(opts mwopts.CORSOptions) gin.HandlerFunc {
	if errs := opts.Validate(); len(errs) > 0 {
		panic(errs[0])
	}

	if opts.MaxAge == 0 {
		opts.MaxAge = 86400
	}
	allowMethods := strings.Join(opts.AllowMethods, ", ")
	allowHeaders := strings.Join(opts.AllowHeaders, ", ")
	exposeHeaders := strings.Join(opts.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(opts.MaxAge)

	return func(c *gin.Context) {
		req := c.Request
		origin := req.Header.Get("Origin")

		allowedOrigin := ""
		for _, o := range opts.AllowOrigins {
			if o == "*" || o == origin {
				allowedOrigin = o
				break
			}
		}
		if origin == "" || allowedOrigin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		if allowedOrigin != "*" {
			c.Header("Vary", "Origin")
		}
		if opts.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if exposeHeaders != "" {
			c.Header("Access-Control-Expose-Headers", exposeHeaders)
		}

		if req.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			c.Header("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
