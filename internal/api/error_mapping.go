// File: internal/api/error_mapping.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/compintel/discovery/internal/services"
	"github.com/compintel/discovery/internal/store"
)

// respondWithServiceError maps an error from services.DiscoveryOrchestratorService
// to the HTTP status spec.md §6 calls for, using the Kind taxonomy instead of
// string-matching.
func respondWithServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		respondWithErrorGin(c, http.StatusBadRequest, err.Error())
	case services.IsAuthorizationScope(err), services.IsNotFound(err):
		respondWithErrorGin(c, http.StatusNotFound, err.Error())
	case services.IsQuota(err):
		respondWithErrorGin(c, http.StatusPaymentRequired, err.Error())
	case store.IsNotFound(err):
		respondWithErrorGin(c, http.StatusNotFound, err.Error())
	case store.IsConflict(err):
		respondWithErrorGin(c, http.StatusConflict, err.Error())
	default:
		respondWithErrorGin(c, http.StatusInternalServerError, "internal error processing request")
	}
}
