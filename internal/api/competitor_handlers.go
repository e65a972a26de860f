// File: internal/api/competitor_handlers.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/store"
)

// ListCompetitors handles GET /competitors?organizationId=...&industry=...
// &country=...&validationStatus=...&minRelevance=...&first=...&after=...
func (h *APIHandler) ListCompetitors(c *gin.Context) {
	rc, err := resolveRequestContext(c)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.ListCompetitorsFilter{
		OrganizationID: rc.OrganizationID,
		Industry:       c.Query("industry"),
		Country:        c.Query("country"),
	}
	if raw := c.Query("validationStatus"); raw != "" {
		filter.ValidationStatus = models.ValidationStatus(raw)
	}
	if raw := c.Query("minRelevance"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondWithErrorGin(c, http.StatusBadRequest, "minRelevance must be an integer")
			return
		}
		filter.MinRelevance = &v
	}
	if raw := c.Query("first"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondWithErrorGin(c, http.StatusBadRequest, "first must be an integer")
			return
		}
		filter.First = v
	}
	filter.After = c.Query("after")

	result, err := h.Orchestrator.ListCompetitors(c.Request.Context(), rc, filter)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	respondWithJSONGin(c, http.StatusOK, result)
}

// GetCompetitor handles GET /competitors/:id.
func (h *APIHandler) GetCompetitor(c *gin.Context) {
	rc, err := resolveRequestContext(c)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := requireValidUUID(c, "id")
	if !ok {
		return
	}

	competitor, err := h.Orchestrator.GetCompetitor(c.Request.Context(), rc, id)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	respondWithJSONGin(c, http.StatusOK, competitor)
}

// validateCompetitorRequest is the PATCH /competitors/:id/validate body.
type validateCompetitorRequest struct {
	ValidationStatus models.ValidationStatus `json:"validationStatus"`
}

// ValidateCompetitor handles PATCH /competitors/:id/validate.
func (h *APIHandler) ValidateCompetitor(c *gin.Context) {
	rc, err := resolveRequestContext(c)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := requireValidUUID(c, "id")
	if !ok {
		return
	}

	var req validateCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	switch req.ValidationStatus {
	case models.ValidationStatusPending, models.ValidationStatusApproved, models.ValidationStatusRejected:
	default:
		respondWithErrorGin(c, http.StatusBadRequest, "validationStatus must be one of pending, approved, rejected")
		return
	}

	competitor, err := h.Orchestrator.ValidateCompetitor(c.Request.Context(), rc, id, req.ValidationStatus)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	respondWithJSONGin(c, http.StatusOK, competitor)
}

// EnrichCompetitor handles POST /competitors/:id/enrich. Per spec.md §6 the
// enrichment options (includeSocialMedia, crawlDepth) are fixed by the
// server; includeAiAnalysis is resolved from the caller's organization tier
// inside the orchestrator (spec.md §9).
func (h *APIHandler) EnrichCompetitor(c *gin.Context) {
	rc, err := resolveRequestContext(c)
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := requireValidUUID(c, "id")
	if !ok {
		return
	}

	competitor, err := h.Orchestrator.EnrichCompetitor(c.Request.Context(), rc, id)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	respondWithJSONGin(c, http.StatusOK, competitor)
}
