package resilience

import (
	"context"
	stderrors "errors"
	"slices"

	"github.com/gin-gonic/gin"

	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
	"github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/response"
)

// Timeout returns a middleware that bounds request processing time.
//
// 超时通过请求 context 传递给下游，处理函数和外部调用（数据库、模型后端）
// 需要遵守 ctx.Done()。若处理函数在超时后仍未写出响应，则返回 ErrRequestTimeout。
func Timeout(opts mwopts.TimeoutOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Timeout <= 0 || slices.Contains(opts.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.Timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			response.FailAndAbort(c, errors.ErrRequestTimeout)
		}
	}
}
