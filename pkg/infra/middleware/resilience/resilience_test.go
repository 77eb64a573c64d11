package resilience

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
	"github.com/kart-io/loan-advisor/pkg/utils/errors"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestRecoveryWritesPanicEnvelope(t *testing.T) {
	var captured any
	r := newEngine(RecoveryWithOptions(mwopts.RecoveryOptions{}, func(_ *gin.Context, err any, _ []byte) {
		captured = err
	}))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "kaboom", captured)
	assert.NotContains(t, w.Body.String(), "goroutine")
}

func TestValidateStackTraceConfig(t *testing.T) {
	assert.False(t, validateStackTraceConfig(true, true))
	assert.True(t, validateStackTraceConfig(true, false))
	assert.False(t, validateStackTraceConfig(false, false))
}

func TestTimeoutReturnsErrorWhenHandlerOverruns(t *testing.T) {
	r := newEngine(Timeout(mwopts.TimeoutOptions{Timeout: 20 * time.Millisecond}))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, errors.ErrRequestTimeout.HTTPStatus(), w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	r := newEngine(RateLimitWithLimiter(limiter, []string{"/v1/ai/ask"}))
	r.POST("/v1/ai/ask", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(method, path, ip string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/v1/ai/ask", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/v1/ai/ask", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/v1/ai/ask", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/v1/ai/ask", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/v1/products", "10.0.0.1"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/v1/ai/ask", "10.0.0.1"))
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(idleLimiterTTL + time.Minute)
	limiter.Allow("b")

	assert.NotContains(t, limiter.clients, "a")
	assert.Contains(t, limiter.clients, "b")
}
