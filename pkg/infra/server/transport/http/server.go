// Package http provides the gin-based HTTP transport.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/pkg/infra/middleware"
	"github.com/kart-io/loan-advisor/pkg/infra/middleware/observability"
	"github.com/kart-io/loan-advisor/pkg/infra/middleware/resilience"
	"github.com/kart-io/loan-advisor/pkg/infra/middleware/security"
	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
	options "github.com/kart-io/loan-advisor/pkg/options/server/http"
	apierrors "github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/response"
)

// Server is the HTTP server implementation.
type Server struct {
	opts    *options.Options
	mwOpts  *mwopts.Options
	engine  *gin.Engine
	metrics *observability.MetricsCollector

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new HTTP server with the given options.
// 中间件在创建时就应用，保证之后注册的路由组都会继承。
func NewServer(serverOpts *options.Options, middlewareOpts *mwopts.Options) *Server {
	if serverOpts == nil {
		serverOpts = options.NewOptions()
	}
	if middlewareOpts == nil {
		middlewareOpts = mwopts.NewOptions()
	}

	gin.SetMode(serverOpts.Mode)
	engine := gin.New()
	engine.ContextWithFallback = true

	s := &Server{
		opts:    serverOpts,
		mwOpts:  middlewareOpts,
		engine:  engine,
		metrics: observability.NewMetricsCollector(*middlewareOpts.Metrics),
	}
	s.applyMiddleware(middlewareOpts)

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrRouteNotFound)
	})
	if middlewareOpts.IsEnabled(mwopts.MiddlewareMetrics) {
		engine.GET(middlewareOpts.Metrics.Path, s.metrics.Handler())
	}
	return s
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SetValidator sets the global validator used by gin's ShouldBind methods.
func (s *Server) SetValidator(v binding.StructValidator) {
	binding.Validator = v
}

// Metrics 返回 HTTP 指标采集器，业务指标共用其注册表。
func (s *Server) Metrics() *observability.MetricsCollector {
	return s.metrics
}

// Addr returns the bound address after Start, or the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start binds the listener and serves in the background.
// 端口占用等错误会同步返回。
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server exited", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// applyMiddleware applies configured middleware to the engine in the configured order.
func (s *Server) applyMiddleware(opts *mwopts.Options) {
	_ = opts.Complete()

	for _, name := range opts.Middleware {
		switch name {
		case mwopts.MiddlewareRecovery:
			s.engine.Use(resilience.RecoveryWithOptions(*opts.Recovery, nil))
		case mwopts.MiddlewareRequestID:
			s.engine.Use(middleware.RequestIDWithOptions(*opts.RequestID))
		case mwopts.MiddlewareLogger:
			s.engine.Use(observability.LoggerWithOptions(*opts.Logger))
		case mwopts.MiddlewareTracing:
			s.engine.Use(observability.Tracing(opts.Logger.SkipPaths...))
		case mwopts.MiddlewareMetrics:
			s.engine.Use(s.metrics.Middleware())
		case mwopts.MiddlewareCORS:
			s.engine.Use(security.CORSWithOptions(*opts.CORS))
		case mwopts.MiddlewareTimeout:
			s.engine.Use(resilience.Timeout(*opts.Timeout))
		case mwopts.MiddlewareRateLimit:
			s.engine.Use(resilience.RateLimit(*opts.RateLimit))
		}
	}
}
