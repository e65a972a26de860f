package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

var errNotFoundStub = errors.New("run not found")

func init() {
	gin.SetMode(gin.TestMode)
}

func setupDiscoveryRouter(h *APIHandler) *gin.Engine {
	r := gin.New()
	r.POST("/discovery/runs", h.CreateDiscoveryRun)
	r.GET("/discovery/runs/:id", h.GetDiscoveryRun)
	r.GET("/discovery/runs", h.ListDiscoveryRuns)
	return r
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeAPIResponse(t *testing.T, body *bytes.Buffer) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestCreateDiscoveryRun(t *testing.T) {
	projectID := uuid.New()
	orgID := uuid.New()

	t.Run("success", func(t *testing.T) {
		wantRun := &models.DiscoveryRun{ID: uuid.New(), ProjectID: projectID, Status: models.DiscoveryRunStatusPending}
		mock := &mockOrchestrator{
			createRunFn: func(ctx context.Context, rc models.RequestContext, pid uuid.UUID, keywords, regions, industries []string, maxResults int) (*models.DiscoveryRun, error) {
				assert.Equal(t, orgID, rc.OrganizationID)
				assert.Equal(t, projectID, pid)
				assert.Equal(t, []string{"crm"}, keywords)
				assert.Equal(t, []string{"us"}, regions)
				return wantRun, nil
			},
		}
		router := setupDiscoveryRouter(newTestHandler(mock))

		body, _ := json.Marshal(createDiscoveryRunRequest{
			ProjectID: projectID,
			Keywords:  []string{"crm"},
			Regions:   []string{"us"},
		})
		req := httptest.NewRequest(http.MethodPost, "/discovery/runs?organizationId="+orgID.String(), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeAPIResponse(t, w.Body)
		assert.True(t, resp.Success)
	})

	t.Run("missing organizationId", func(t *testing.T) {
		mock := &mockOrchestrator{}
		router := setupDiscoveryRouter(newTestHandler(mock))

		body, _ := json.Marshal(createDiscoveryRunRequest{ProjectID: projectID, Keywords: []string{"crm"}, Regions: []string{"us"}})
		req := httptest.NewRequest(http.MethodPost, "/discovery/runs", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty keywords rejected before reaching orchestrator", func(t *testing.T) {
		mock := &mockOrchestrator{
			createRunFn: func(ctx context.Context, rc models.RequestContext, pid uuid.UUID, keywords, regions, industries []string, maxResults int) (*models.DiscoveryRun, error) {
				t.Fatal("orchestrator should not be called when keywords are empty")
				return nil, nil
			},
		}
		router := setupDiscoveryRouter(newTestHandler(mock))

		body, _ := json.Marshal(createDiscoveryRunRequest{ProjectID: projectID, Regions: []string{"us"}})
		req := httptest.NewRequest(http.MethodPost, "/discovery/runs?organizationId="+orgID.String(), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("nil projectId rejected", func(t *testing.T) {
		mock := &mockOrchestrator{}
		router := setupDiscoveryRouter(newTestHandler(mock))

		body, _ := json.Marshal(createDiscoveryRunRequest{Keywords: []string{"crm"}, Regions: []string{"us"}})
		req := httptest.NewRequest(http.MethodPost, "/discovery/runs?organizationId="+orgID.String(), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetDiscoveryRun(t *testing.T) {
	orgID := uuid.New()
	runID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mock := &mockOrchestrator{
			getRunFn: func(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.DiscoveryRun, error) {
				assert.Equal(t, runID, id)
				return &models.DiscoveryRun{ID: runID}, nil
			},
		}
		router := setupDiscoveryRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/discovery/runs/"+runID.String()+"?organizationId="+orgID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		mock := &mockOrchestrator{}
		router := setupDiscoveryRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/discovery/runs/not-a-uuid?organizationId="+orgID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		mock := &mockOrchestrator{
			getRunFn: func(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.DiscoveryRun, error) {
				return nil, store.NewError("GetRun", store.KindNotFound, errNotFoundStub)
			},
		}
		router := setupDiscoveryRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/discovery/runs/"+runID.String()+"?organizationId="+orgID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListDiscoveryRuns(t *testing.T) {
	orgID := uuid.New()
	projectID := uuid.New()

	t.Run("requires projectId", func(t *testing.T) {
		mock := &mockOrchestrator{}
		router := setupDiscoveryRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/discovery/runs?organizationId="+orgID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("nil slice normalized to empty array", func(t *testing.T) {
		mock := &mockOrchestrator{
			listRunsFn: func(ctx context.Context, rc models.RequestContext, pid uuid.UUID) ([]*models.DiscoveryRun, error) {
				return nil, nil
			},
		}
		router := setupDiscoveryRouter(newTestHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/discovery/runs?organizationId="+orgID.String()+"&projectId="+projectID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeAPIResponse(t, w.Body)
		assert.Equal(t, "[]", string(resp.Data))
	})
}
