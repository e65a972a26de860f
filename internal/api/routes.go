// File: internal/api/routes.go
package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/compintel/discovery/internal/middleware"
)

// RegisterRoutes wires the discovery/competitor endpoints (spec.md §6) plus
// the existing health/ping probes onto engine, gating everything but the
// probes behind the bearer API key.
func RegisterRoutes(engine *gin.Engine, h *APIHandler, rawDB *sql.DB, apiKey string, rateLimiter *middleware.RateLimiter) {
	security := middleware.NewSecurityMiddleware()
	engine.Use(security.SecurityHeaders())
	engine.Use(security.EnhancedCORS())

	engine.GET("/ping", PingHandlerGin)

	healthHandler := NewHealthCheckHandler(rawDB)
	engine.GET("/health", healthHandler.HandleHealthCheck)

	authorized := engine.Group("/")
	authorized.Use(GinAPIKeyAuthMiddleware(apiKey))
	authorized.Use(rateLimiter.Middleware())
	{
		authorized.POST("/discovery/runs", h.CreateDiscoveryRun)
		authorized.GET("/discovery/runs/:id", h.GetDiscoveryRun)
		authorized.GET("/discovery/runs", h.ListDiscoveryRuns)

		authorized.GET("/competitors", h.ListCompetitors)
		authorized.GET("/competitors/:id", h.GetCompetitor)
		authorized.PATCH("/competitors/:id/validate", h.ValidateCompetitor)
		authorized.POST("/competitors/:id/enrich", h.EnrichCompetitor)
	}
}
