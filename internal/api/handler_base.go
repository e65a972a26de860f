// File: internal/api/handler_base.go
package api

import (
	"github.com/compintel/discovery/internal/config"
	"github.com/compintel/discovery/internal/services"
	"github.com/compintel/discovery/internal/store"
	"github.com/jmoiron/sqlx"
)

// APIHandler holds shared dependencies for the discovery and competitor
// handlers.
type APIHandler struct {
	Config *config.AppConfig
	DB     *sqlx.DB

	DiscoveryStore   store.DiscoveryStore
	CompetitorStore  store.CompetitorStore
	Orchestrator     services.DiscoveryOrchestratorService
}

// NewAPIHandler creates a new APIHandler with core dependencies.
func NewAPIHandler(
	cfg *config.AppConfig,
	db *sqlx.DB,
	discoveryStore store.DiscoveryStore,
	competitorStore store.CompetitorStore,
	orchestrator services.DiscoveryOrchestratorService,
) *APIHandler {
	return &APIHandler{
		Config:          cfg,
		DB:              db,
		DiscoveryStore:  discoveryStore,
		CompetitorStore: competitorStore,
		Orchestrator:    orchestrator,
	}
}
