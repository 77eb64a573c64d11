package resilience

import (
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"golang.org/x/time/rate"

	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
	"github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/response"
)

// idleLimiterTTL 超过该时长未访问的客户端限流器会被清理。
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 维护令牌桶。
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	lastScan time.Time
	now      func() time.Time
}

// NewRateLimiter creates a per-client token bucket limiter.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the client may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastScan) < idleLimiterTTL {
		return
	}
	l.lastScan = now
	for key, cl := range l.clients {
		if now.Sub(cl.lastSeen) > idleLimiterTTL {
			delete(l.clients, key)
		}
	}
}

// RateLimit returns a middleware that rejects bursts with ErrLoanRateLimited.
func RateLimit(opts mwopts.RateLimitOptions) gin.HandlerFunc {
	return RateLimitWithLimiter(NewRateLimiter(opts.RPS, opts.Burst), opts.Paths)
}

// RateLimitWithLimiter is RateLimit with an injected limiter.
func RateLimitWithLimiter(limiter *RateLimiter, paths []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(paths) > 0 && !slices.Contains(paths, c.Request.URL.Path) {
			c.Next()
			return
		}

		if !limiter.Allow(c.ClientIP()) {
			logger.Warnw("rate limit exceeded",
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path,
			)
			response.FailAndAbort(c, errors.ErrLoanRateLimited)
			return
		}
		c.Next()
	}
}
