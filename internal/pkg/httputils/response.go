// Package httputils provides HTTP utility functions.
package httputils

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/response"
)

// WriteResponse writes the response to the client.
// 非 Errno 错误统一包装为 ErrLoanUnexpected，避免内部细节泄露到响应体。
func WriteResponse(c *gin.Context, err error, data any) {
	if err != nil {
		e := toErrno(err)
		logFailure(c, e)
		response.Fail(c, e)
		return
	}
	response.OK(c, data)
}

func toErrno(err error) *errors.Errno {
	e := errors.FromError(err)
	if e.Code == errors.ErrInternal.Code {
		return errors.ErrLoanUnexpected.WithCause(err)
	}
	return e
}

// logFailure 服务端错误记为 error，客户端错误只记 debug。
func logFailure(c *gin.Context, e *errors.Errno) {
	fields := []any{"path", c.FullPath(), "code", e.Code, "error", e.Error()}
	switch {
	case errors.IsServerError(e.Code):
		logger.Errorw("Request failed", fields...)
	case errors.IsClientError(e.Code):
		logger.Debugw("Request rejected", fields...)
	}
}
