package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/store"
)

// mockOrchestrator is a hand-rolled stub of services.DiscoveryOrchestratorService,
// grounded on the teacher's own handler tests (health_check_handler_test.go),
// which exercise handlers against a real dependency rather than a mocking
// framework; here the dependency is swapped for a field-driven stub since the
// interface is narrow enough that testify/mock would add indirection without
// buying anything.
type mockOrchestrator struct {
	createRunFn         func(ctx context.Context, rc models.RequestContext, projectID uuid.UUID, keywords, regions, industries []string, maxResults int) (*models.DiscoveryRun, error)
	getRunFn            func(ctx context.Context, rc models.RequestContext, runID uuid.UUID) (*models.DiscoveryRun, error)
	listRunsFn          func(ctx context.Context, rc models.RequestContext, projectID uuid.UUID) ([]*models.DiscoveryRun, error)
	listCompetitorsFn   func(ctx context.Context, rc models.RequestContext, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error)
	getCompetitorFn     func(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error)
	validateCompetitorFn func(ctx context.Context, rc models.RequestContext, id uuid.UUID, status models.ValidationStatus) (*models.Competitor, error)
	enrichCompetitorFn  func(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error)
	runDiscoveryJobFn   func(ctx context.Context, jobCtx models.DiscoveryContext) error
}

func (m *mockOrchestrator) CreateRun(ctx context.Context, rc models.RequestContext, projectID uuid.UUID, keywords, regions, industries []string, maxResults int) (*models.DiscoveryRun, error) {
	return m.createRunFn(ctx, rc, projectID, keywords, regions, industries, maxResults)
}

func (m *mockOrchestrator) GetRun(ctx context.Context, rc models.RequestContext, runID uuid.UUID) (*models.DiscoveryRun, error) {
	return m.getRunFn(ctx, rc, runID)
}

func (m *mockOrchestrator) ListRuns(ctx context.Context, rc models.RequestContext, projectID uuid.UUID) ([]*models.DiscoveryRun, error) {
	return m.listRunsFn(ctx, rc, projectID)
}

func (m *mockOrchestrator) ListCompetitors(ctx context.Context, rc models.RequestContext, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error) {
	return m.listCompetitorsFn(ctx, rc, filter)
}

func (m *mockOrchestrator) GetCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error) {
	return m.getCompetitorFn(ctx, rc, id)
}

func (m *mockOrchestrator) ValidateCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID, status models.ValidationStatus) (*models.Competitor, error) {
	return m.validateCompetitorFn(ctx, rc, id, status)
}

func (m *mockOrchestrator) EnrichCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error) {
	return m.enrichCompetitorFn(ctx, rc, id)
}

func (m *mockOrchestrator) RunDiscoveryJob(ctx context.Context, jobCtx models.DiscoveryContext) error {
	return m.runDiscoveryJobFn(ctx, jobCtx)
}

func newTestHandler(orch *mockOrchestrator) *APIHandler {
	return NewAPIHandler(nil, nil, nil, nil, orch)
}
