// Package router provides loan advisor routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/internal/advisor/handler"
	"github.com/kart-io/loan-advisor/pkg/infra/middleware"
)

// Handlers groups the HTTP handlers served by the advisor.
type Handlers struct {
	Product *handler.ProductHandler
	Chat    *handler.ChatHandler
}

// Config 路由配置。
type Config struct {
	LivenessPath  string
	ReadinessPath string
	// ChatLimiter 仅作用于对话接口，为 nil 时不限流。
	ChatLimiter gin.HandlerFunc
}

// Register registers the advisor routes on engine.
func Register(engine *gin.Engine, h Handlers, health *middleware.HealthManager, cfg Config) {
	logger.Info("Registering loan advisor routes...")

	if cfg.LivenessPath == "" {
		cfg.LivenessPath = "/healthz"
	}
	if cfg.ReadinessPath == "" {
		cfg.ReadinessPath = "/readyz"
	}
	middleware.RegisterHealthRoutes(engine, health, cfg.LivenessPath, cfg.ReadinessPath)

	v1 := engine.Group("/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", h.Product.List)
			products.GET("/featured", h.Product.Featured)
			products.GET("/:id", h.Product.Get)
		}

		v1.GET("/filters/defaults", h.Product.FilterDefaults)

		ai := v1.Group("/ai")
		{
			ai.GET("/status", h.Chat.Status)
			if cfg.ChatLimiter != nil {
				ai.POST("/ask", cfg.ChatLimiter, h.Chat.Ask)
			} else {
				ai.POST("/ask", h.Chat.Ask)
			}
		}
	}

	logger.Info("HTTP routes registered")
}
