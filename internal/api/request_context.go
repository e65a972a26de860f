// File: internal/api/request_context.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/compintel/discovery/internal/models"
)

// resolveRequestContext builds the explicit tenant RequestContext spec.md
// §9 requires: the organization is always read from the request itself
// (query parameter), never inferred from ambient auth state, since this
// module has no identity provider of its own (spec.md §1 out-of-scope).
// X-User-ID/X-Organization-Tier are the upstream gateway's stand-in for a
// resolved identity/billing lookup.
func resolveRequestContext(c *gin.Context) (models.RequestContext, error) {
	orgParam := c.Query("organizationId")
	if orgParam == "" {
		return models.RequestContext{}, fmt.Errorf("organizationId query parameter is required")
	}
	orgID, err := uuid.Parse(orgParam)
	if err != nil {
		return models.RequestContext{}, fmt.Errorf("organizationId must be a valid UUID: %w", err)
	}

	userID := uuid.Nil
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			userID = parsed
		}
	}

	tier := models.OrgTierFree
	if raw := c.GetHeader("X-Organization-Tier"); raw != "" {
		switch models.OrganizationTier(raw) {
		case models.OrgTierFree, models.OrgTierTrial, models.OrgTierPremium:
			tier = models.OrganizationTier(raw)
		}
	}

	return models.RequestContext{UserID: userID, OrganizationID: orgID, Tier: tier}, nil
}

// requireValidUUID parses a path parameter as a UUID, writing a 400 error
// response and returning ok=false if it is malformed.
func requireValidUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondWithErrorGin(c, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", param))
		return uuid.Nil, false
	}
	return id, true
}
