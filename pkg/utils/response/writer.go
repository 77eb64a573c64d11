package response

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/loan-advisor/pkg/infra/middleware/common"
	"github.com/kart-io/loan-advisor/pkg/utils/errors"
)

// OK writes a success envelope and releases it.
func OK(c *gin.Context, data any) {
	write(c, Success(data))
}

// Fail writes an error envelope and releases it.
func Fail(c *gin.Context, err *errors.Errno) {
	lang, _, _ := strings.Cut(c.GetHeader("Accept-Language"), ",")
	write(c, ErrWithLang(err, strings.TrimSpace(lang)))
}

// FailAndAbort writes an error envelope and stops the handler chain.
func FailAndAbort(c *gin.Context, err *errors.Errno) {
	Fail(c, err)
	c.Abort()
}

func write(c *gin.Context, r *Response) {
	defer Release(r)
	r.WithRequestID(common.GetRequestID(c.Request.Context())).
		WithTimestamp(time.Now().UnixMilli())
	c.JSON(r.HTTPStatus(), r)
}
