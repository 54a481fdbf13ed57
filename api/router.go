// Package api wires the HTTP surface: routing, auth, and rate limiting
// around the orchestrator.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garimpolabs/garimpo/api/handler"
	"github.com/garimpolabs/garimpo/api/middleware"
	"github.com/garimpolabs/garimpo/cache"
	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/orchestrator"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(orch *orchestrator.Orchestrator, pool handler.PoolStatser, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health is unauthenticated.
	v1.GET("/health", handler.Health(pool, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/search", handler.Search(orch, cc, cfg.Webhook))

	return r
}
