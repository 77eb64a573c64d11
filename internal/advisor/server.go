// Package advisor assembles the loan advisor service.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/internal/advisor/biz"
	"github.com/kart-io/loan-advisor/internal/advisor/handler"
	advisormetrics "github.com/kart-io/loan-advisor/internal/advisor/metrics"
	"github.com/kart-io/loan-advisor/internal/advisor/router"
	"github.com/kart-io/loan-advisor/internal/advisor/store"
	"github.com/kart-io/loan-advisor/pkg/component/redis"
	"github.com/kart-io/loan-advisor/pkg/component/storage"
	"github.com/kart-io/loan-advisor/pkg/infra/app"
	"github.com/kart-io/loan-advisor/pkg/infra/middleware"
	mwresilience "github.com/kart-io/loan-advisor/pkg/infra/middleware/resilience"
	"github.com/kart-io/loan-advisor/pkg/infra/pool"
	"github.com/kart-io/loan-advisor/pkg/infra/server"
	"github.com/kart-io/loan-advisor/pkg/infra/tracing"
	"github.com/kart-io/loan-advisor/pkg/llm"
	// 导入供应商以自动注册
	_ "github.com/kart-io/loan-advisor/pkg/llm/gemini"
	_ "github.com/kart-io/loan-advisor/pkg/llm/openai"
	"github.com/kart-io/loan-advisor/pkg/llm/resilience"
	cacheopts "github.com/kart-io/loan-advisor/pkg/options/cache"
	catalogopts "github.com/kart-io/loan-advisor/pkg/options/catalog"
	llmopts "github.com/kart-io/loan-advisor/pkg/options/llm"
	logopts "github.com/kart-io/loan-advisor/pkg/options/logger"
	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
	"github.com/kart-io/loan-advisor/pkg/utils/validator"
)

// Name is the name of the application.
const Name = "loan-advisor"

// releaseTimeout 关闭时等待后台任务完成的时间。
const releaseTimeout = 5 * time.Second

// Config contains application-related configurations.
type Config struct {
	ServerOptions  *server.Options
	LogOptions     *logopts.Options
	TracingOptions *tracing.Options
	CatalogOptions *catalogopts.Options
	CacheOptions   *cacheopts.Options
	LLMOptions     *llmopts.ProviderOptions
}

// Server represents the loan advisor server.
type Server struct {
	srv     *server.Manager
	storage *storage.Manager
	health  *middleware.HealthManager
	tracer  *tracing.Provider
	pool    *pool.Pool
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting loan advisor service...")

	// 2. 初始化链路追踪
	if cfg.TracingOptions.ServiceVersion == "" {
		cfg.TracingOptions.ServiceVersion = app.GetVersion()
	}
	tracer, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	logger.Infow("Tracing initialized", "enabled", tracer.Enabled())

	s := &Server{tracer: tracer}
	ok := false
	defer func() {
		if !ok {
			s.cleanup()
		}
	}()

	// 3. 初始化后台任务池
	s.pool, err = pool.NewPool("catalog-cache", pool.BackgroundPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize worker pool: %w", err)
	}
	s.storage = storage.NewManager(storage.WithPool(s.pool))

	// 4. 初始化产品目录数据源
	backend, err := openCatalog(ctx, cfg.CatalogOptions, s.storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	if err := seedFixtures(ctx, backend, cfg.CatalogOptions.Fixtures); err != nil {
		return nil, err
	}

	// 5. 初始化目录缓存（可选）
	var (
		catalog store.Catalog = backend
		cached  *store.CachedCatalog
	)
	if cfg.CacheOptions.Enabled {
		redisClient, err := redis.New(ctx, cfg.CacheOptions.Redis)
		if err != nil {
			logger.Warnw("failed to connect to redis, catalog cache disabled", "error", err.Error())
		} else {
			if err := s.storage.Register("cache", redisClient); err != nil {
				_ = redisClient.Close()
				return nil, err
			}
			cached = store.NewCachedCatalog(backend, redisClient.Client(), store.CacheConfig{
				TTL:       cfg.CacheOptions.TTL,
				KeyPrefix: cfg.CacheOptions.KeyPrefix,
			}, s.pool)
			catalog = cached
			logger.Infow("Catalog cache initialized",
				"addr", cfg.CacheOptions.Redis.Addr(),
				"ttl", cfg.CacheOptions.TTL.String(),
			)
		}
	} else {
		logger.Info("Catalog cache is disabled")
	}

	// 6. 初始化对话模型供应商
	provider, breaker, err := newChatProvider(cfg.LLMOptions)
	if err != nil {
		return nil, err
	}

	// 7. 初始化服务器与业务指标
	s.srv = server.NewManager(
		server.WithHTTPOptions(cfg.ServerOptions.HTTP),
		server.WithMiddleware(cfg.ServerOptions.Middleware),
		server.WithShutdownTimeout(cfg.ServerOptions.ShutdownTimeout),
	)
	if cached != nil {
		s.srv.AddServer(&cacheWarmer{cache: cached})
	}
	httpServer := s.srv.HTTPServer()
	registry := httpServer.Metrics().Registry()

	bizMetrics := advisormetrics.New(cfg.ServerOptions.Middleware.Metrics.Namespace)
	if err := bizMetrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := bizMetrics.RegisterPoolStats(registry, s.pool); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	if cached != nil {
		if err := bizMetrics.RegisterCacheStats(registry, cached.Stats); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	if breaker != nil {
		if err := bizMetrics.RegisterBreakerState(registry, breaker); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	// 8. 初始化 Biz 与 Handler 层
	productService := biz.NewProductService(catalog, bizMetrics)
	chatService := biz.NewChatService(catalog, provider,
		biz.WithChatRecorder(bizMetrics),
		biz.WithDevelopment(cfg.LogOptions.Development),
	)
	handlers := router.Handlers{
		Product: handler.NewProductHandler(productService),
		Chat:    handler.NewChatHandler(chatService),
	}
	logger.Info("Business layer initialized")

	// 9. 健康检查
	s.health = middleware.NewHealthManager(app.GetVersion())
	for _, name := range s.storage.List() {
		s.health.RegisterChecker(name, s.storage.Checker(name))
	}

	// 10. 注册路由
	routeCfg := router.Config{}
	if mw := cfg.ServerOptions.Middleware; !mw.IsEnabled(mwopts.MiddlewareRateLimit) {
		// 全局限流未启用时只对对话接口限流
		routeCfg.ChatLimiter = mwresilience.RateLimitWithLimiter(
			mwresilience.NewRateLimiter(mw.RateLimit.RPS, mw.RateLimit.Burst), nil)
	}
	httpServer.SetValidator(validator.NewGinValidator(validator.Global()))
	router.Register(httpServer.Engine(), handlers, s.health, routeCfg)

	ok = true
	logger.Infow("Loan advisor service is ready",
		"addr", cfg.ServerOptions.HTTP.Addr,
		"catalog", cfg.CatalogOptions.Driver,
		"model.provider", provider.Name(),
		"model.available", llm.IsAvailable(provider),
	)
	return s, nil
}

// newChatProvider 创建对话供应商。缺少密钥时返回不可用状态而不是失败，
// 目录接口仍然可以正常服务。
func newChatProvider(opts *llmopts.ProviderOptions) (llm.ConversationProvider, *resilience.CircuitBreaker, error) {
	provider, err := llm.NewConversationProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			logger.Warnw("Chat provider is not configured, AI chat will answer 503",
				"provider", opts.Provider,
				"error", err.Error(),
			)
			return llm.NewUnavailableProvider(opts.Provider, err), nil, nil
		}
		return nil, nil, fmt.Errorf("failed to initialize chat provider (registered: %s): %w",
			strings.Join(llm.ListProviders(), ", "), err)
	}
	logger.Infow("Chat provider initialized",
		"provider", opts.Provider,
		"model", opts.Model,
	)

	cbConfig := opts.BreakerConfig()
	if cbConfig == nil {
		return provider, nil, nil
	}
	wrapped := resilience.Wrap(provider, cbConfig)
	return wrapped, wrapped.CircuitBreaker(), nil
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.cleanup()

	for _, st := range s.storage.HealthCheckAll(ctx) {
		if !st.Healthy {
			logger.Warnw("Datasource is unhealthy at startup", "name", st.Name, "error", fmt.Sprint(st.Error))
			continue
		}
		logger.Infow("Datasource is healthy", "name", st.Name, "latency", st.Latency.String())
	}

	s.health.SetReady(true)
	err := s.srv.Run(ctx)
	s.health.SetReady(false)
	return err
}

// cleanup 关闭数据源、任务池和追踪导出器。
func (s *Server) cleanup() {
	if s.pool != nil {
		if err := s.pool.Release(releaseTimeout); err != nil {
			logger.Warnw("failed to release worker pool", "error", err.Error())
		}
	}
	if s.storage != nil {
		if err := s.storage.CloseAll(); err != nil {
			logger.Warnw("failed to close datasources", "error", err.Error())
		}
	}
	if s.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := s.tracer.Shutdown(ctx); err != nil {
			logger.Warnw("failed to shutdown tracer", "error", err.Error())
		}
	}
	_ = logger.Flush()
}
