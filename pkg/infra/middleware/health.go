package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the health status.
type HealthStatus string

const (
	// HealthStatusUp indicates the service is healthy.
	HealthStatusUp HealthStatus = "UP"
	// HealthStatusDown indicates the service is unhealthy.
	HealthStatusDown HealthStatus = "DOWN"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
	Version string                 `json:"version,omitempty"`
}

// CheckResult represents an individual health check result.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthChecker 检查某个依赖（数据库、缓存、模型后端配置）。
type HealthChecker func(ctx context.Context) error

// checkTimeout 单个依赖检查的超时时间。
const checkTimeout = 2 * time.Second

// HealthManager manages readiness checks.
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	ready    bool
	version  string
}

// NewHealthManager creates a new health manager.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
	}
}

// RegisterChecker registers a health checker.
func (h *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// SetReady sets the readiness status.
func (h *HealthManager) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns the readiness status.
func (h *HealthManager) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Check performs all health checks.
func (h *HealthManager) Check(ctx context.Context) HealthResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := HealthResponse{Status: HealthStatusUp, Version: h.version}
	if len(h.checkers) == 0 {
		return resp
	}

	resp.Checks = make(map[string]CheckResult, len(h.checkers))
	for name, checker := range h.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checker(checkCtx)
		cancel()
		if err != nil {
			resp.Status = HealthStatusDown
			resp.Checks[name] = CheckResult{Status: HealthStatusDown, Message: err.Error()}
			continue
		}
		resp.Checks[name] = CheckResult{Status: HealthStatusUp}
	}
	return resp
}

// RegisterHealthRoutes 注册存活与就绪探针。
// 存活探针只要进程在运行就返回 UP，就绪探针会执行全部依赖检查。
func RegisterHealthRoutes(engine *gin.Engine, manager *HealthManager, livenessPath, readinessPath string) {
	engine.GET(livenessPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: HealthStatusUp, Version: manager.version})
	})

	engine.GET(readinessPath, func(c *gin.Context) {
		if !manager.IsReady() {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: HealthStatusDown})
			return
		}
		resp := manager.Check(c.Request.Context())
		status := http.StatusOK
		if resp.Status == HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	})
}
