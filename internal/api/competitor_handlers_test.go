package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/store"
)

func setupCompetitorRouter(h *APIHandler) *gin.Engine {
	r := gin.New()
	r.GET("/competitors", h.ListCompetitors)
	r.GET("/competitors/:id", h.GetCompetitor)
	r.PATCH("/competitors/:id/validate", h.ValidateCompetitor)
	r.POST("/competitors/:id/enrich", h.EnrichCompetitor)
	return r
}

func TestListCompetitors(t *testing.T) {
	orgID := uuid.New()

	t.Run("filters threaded through to the orchestrator", func(t *testing.T) {
		mock := &mockOrchestrator{
			listCompetitorsFn: func(ctx context.Context, rc models.RequestContext, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error) {
				assert.Equal(t, orgID, filter.OrganizationID)
				assert.Equal(t, "fintech", filter.Industry)
				assert.Equal(t, "US", filter.Country)
				assert.Equal(t, models.ValidationStatusApproved, filter.ValidationStatus)
				require.NotNil(t, filter.MinRelevance)
				assert.Equal(t, 50, *filter.MinRelevance)
				assert.Equal(t, 20, filter.First)
				return &store.PaginatedResult[*models.Competitor]{Data: []*models.Competitor{}}, nil
			},
		}
		router := setupCompetitorRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet,
			"/competitors?organizationId="+orgID.String()+
				"&industry=fintech&country=US&validationStatus=approved&minRelevance=50&first=20", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid minRelevance rejected", func(t *testing.T) {
		mock := &mockOrchestrator{}
		router := setupCompetitorRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/competitors?organizationId="+orgID.String()+"&minRelevance=not-a-number", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing organizationId rejected", func(t *testing.T) {
		mock := &mockOrchestrator{}
		router := setupCompetitorRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/competitors", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetCompetitor(t *testing.T) {
	orgID := uuid.New()
	id := uuid.New()

	mock := &mockOrchestrator{
		getCompetitorFn: func(ctx context.Context, rc models.RequestContext, gotID uuid.UUID) (*models.Competitor, error) {
			assert.Equal(t, id, gotID)
			return &models.Competitor{ID: id}, nil
		},
	}
	router := setupCompetitorRouter(newTestHandler(mock))

	req := httptest.NewRequest(http.MethodGet, "/competitors/"+id.String()+"?organizationId="+orgID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestValidateCompetitor(t *testing.T) {
	orgID := uuid.New()
	id := uuid.New()

	t.Run("valid status accepted", func(t *testing.T) {
		mock := &mockOrchestrator{
			validateCompetitorFn: func(ctx context.Context, rc models.RequestContext, gotID uuid.UUID, status models.ValidationStatus) (*models.Competitor, error) {
				assert.Equal(t, models.ValidationStatusApproved, status)
				return &models.Competitor{ID: gotID, ValidationStatus: status}, nil
			},
		}
		router := setupCompetitorRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodPatch, "/competitors/"+id.String()+"/validate?organizationId="+orgID.String(),
			jsonBody(t, validateCompetitorRequest{ValidationStatus: models.ValidationStatusApproved}))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		mock := &mockOrchestrator{
			validateCompetitorFn: func(ctx context.Context, rc models.RequestContext, gotID uuid.UUID, status models.ValidationStatus) (*models.Competitor, error) {
				t.Fatal("orchestrator should not be called for an invalid status")
				return nil, nil
			},
		}
		router := setupCompetitorRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodPatch, "/competitors/"+id.String()+"/validate?organizationId="+orgID.String(),
			jsonBody(t, validateCompetitorRequest{ValidationStatus: "bogus"}))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEnrichCompetitor(t *testing.T) {
	orgID := uuid.New()
	id := uuid.New()

	mock := &mockOrchestrator{
		enrichCompetitorFn: func(ctx context.Context, rc models.RequestContext, gotID uuid.UUID) (*models.Competitor, error) {
			assert.Equal(t, id, gotID)
			return &models.Competitor{ID: gotID}, nil
		},
	}
	router := setupCompetitorRouter(newTestHandler(mock))

	req := httptest.NewRequest(http.MethodPost, "/competitors/"+id.String()+"/enrich?organizationId="+orgID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
