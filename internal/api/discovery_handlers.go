// File: internal/api/discovery_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/compintel/discovery/internal/models"
)

// createDiscoveryRunRequest is the POST /discovery/runs body (spec.md §6).
type createDiscoveryRunRequest struct {
	ProjectID  uuid.UUID `json:"projectId"`
	Keywords   []string  `json:"keywords"`
	Regions    []string  `json:"regions"`
	Industries []string  `json:"industries,omitempty"`
	MaxResults int       `json:"maxResults,omitempty"`
}

// CreateDiscoveryRun handles POST /discovery/runs.
func (h *APIHandler) CreateDiscoveryRun(c *gin.Context) {
	rc, err := resolveRequestContext(c)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
		return
	}

	var req createDiscoveryRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ProjectID == uuid.Nil {
		respondWithErrorGin(c, http.StatusBadRequest, "projectId must be a valid UUID")
		return
	}
	if len(req.Keywords) == 0 {
		respondWithErrorGin(c, http.StatusBadRequest, "keywords must not be empty")
		return
	}
	if len(req.Regions) == 0 {
		respondWithErrorGin(c, http.StatusBadRequest, "regions must not be empty")
		return
	}

	run, err := h.Orchestrator.CreateRun(c.Request.Context(), rc, req.ProjectID, req.Keywords, req.Regions, req.Industries, req.MaxResults)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	respondWithJSONGin(c, http.StatusCreated, run)
}

// GetDiscoveryRun handles GET /discovery/runs/:id.
func (h *APIHandler) GetDiscoveryRun(c *gin.Context) {
	rc, err := resolveRequestContext(c)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
		return
	}
	runID, ok := requireValidUUID(c, "id")
	if !ok {
		return
	}

	run, err := h.Orchestrator.GetRun(c.Request.Context(), rc, runID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	respondWithJSONGin(c, http.StatusOK, run)
}

// ListDiscoveryRuns handles GET /discovery/runs?projectId=....
func (h *APIHandler) ListDiscoveryRuns(c *gin.Context) {
	rc, err := resolveRequestContext(c)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
		return
	}

	projectParam := c.Query("projectId")
	if projectParam == "" {
		respondWithErrorGin(c, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	projectID, err := uuid.Parse(projectParam)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, "projectId must be a valid UUID")
		return
	}

	runs, err := h.Orchestrator.ListRuns(c.Request.Context(), rc, projectID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	if runs == nil {
		runs = []*models.DiscoveryRun{}
	}
	respondWithJSONGin(c, http.StatusOK, runs)
}
