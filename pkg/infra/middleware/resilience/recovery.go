// Package resilience provides middleware that keeps the server responsive
// under panics, slow handlers and bursts of traffic.
package resilience

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
	"github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/response"
)

// PanicHandler 定义 panic 处理器类型。
// 参数：
//   - ctx: 请求上下文
//   - err: panic 值
//   - stack: 堆栈跟踪信息
type PanicHandler func(ctx *gin.Context, err any, stack []byte)

// Recovery returns a middleware that recovers from panics with default options.
func Recovery() gin.HandlerFunc {
	return RecoveryWithOptions(*mwopts.NewRecoveryOptions(), nil)
}

// RecoveryWithOptions 返回一个使用纯配置选项和运行时依赖注入的 Recovery 中间件。
//
// 参数：
//   - opts: 纯配置选项（可 JSON 序列化）
//   - onPanic: 可选的 panic 处理器，用于自定义日志或告警逻辑
func RecoveryWithOptions(opts mwopts.RecoveryOptions, onPanic PanicHandler) gin.HandlerFunc {
	includeStack := validateStackTraceConfig(opts.EnableStackTrace, isProductionEnvironment())

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()

				logger.Errorw("panic recovered",
					"panic", r,
					"stack_trace", string(stack),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				if onPanic != nil {
					onPanic(c, r, stack)
				}

				response.FailAndAbort(c, buildClientError(r, stack, includeStack))
			}
		}()
		c.Next()
	}
}

// isProductionEnvironment checks APP_ENV or GO_ENV.
func isProductionEnvironment() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

// validateStackTraceConfig 生产环境下强制不向客户端返回堆栈。
func validateStackTraceConfig(enableStackTrace bool, isProd bool) bool {
	if isProd && enableStackTrace {
		logger.Warn("Stack trace is enabled but running in production environment. " +
			"Stack trace will NOT be returned to clients. Full stack trace will still be logged.")
		return false
	}
	return enableStackTrace
}

func buildClientError(panicValue any, stack []byte, includeStackTrace bool) *errors.Errno {
	if includeStackTrace {
		return errors.ErrPanic.WithMessage(fmt.Sprintf("panic: %v\n%s", panicValue, stack))
	}
	return errors.ErrPanic
}
