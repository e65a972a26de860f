package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compintel/discovery/internal/config"
	"github.com/compintel/discovery/internal/dedup"
	"github.com/compintel/discovery/internal/enrichment"
	"github.com/compintel/discovery/internal/extraction/competitor"
	"github.com/compintel/discovery/internal/llmclient"
	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/providererr"
	"github.com/compintel/discovery/internal/searchprovider"
	"github.com/compintel/discovery/internal/store"
)

// --- fakes grounded on the same field-driven-stub approach as
// discovery_worker_service_test.go and internal/api/mock_orchestrator_test.go. ---

// fakeDiscoveryStore is an in-memory store.DiscoveryStore exercising only
// the run-lifecycle methods RunDiscoveryJob/CreateRun touch.
type fakeDiscoveryStore struct {
	runs map[uuid.UUID]*models.DiscoveryRun
}

func newFakeDiscoveryStore() *fakeDiscoveryStore {
	return &fakeDiscoveryStore{runs: map[uuid.UUID]*models.DiscoveryRun{}}
}

func (s *fakeDiscoveryStore) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}
func (s *fakeDiscoveryStore) CreateRun(ctx context.Context, exec store.Querier, run *models.DiscoveryRun) error {
	s.runs[run.ID] = run
	return nil
}
func (s *fakeDiscoveryStore) GetRunByID(ctx context.Context, exec store.Querier, id uuid.UUID) (*models.DiscoveryRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return run, nil
}
func (s *fakeDiscoveryStore) UpdateRunStatus(ctx context.Context, exec store.Querier, id uuid.UUID, status models.DiscoveryRunStatus, errMsg sql.NullString) error {
	run, ok := s.runs[id]
	if !ok {
		return store.ErrNotFound
	}
	run.Status = status
	run.ErrorMessage = errMsg
	return nil
}
func (s *fakeDiscoveryStore) UpdateRunResultsCount(ctx context.Context, exec store.Querier, id uuid.UUID, count int) error {
	s.runs[id].ResultsCount = count
	return nil
}
func (s *fakeDiscoveryStore) CompleteRun(ctx context.Context, exec store.Querier, id uuid.UUID, resultsCount int) error {
	run, ok := s.runs[id]
	if !ok {
		return store.ErrNotFound
	}
	run.Status = models.DiscoveryRunStatusCompleted
	run.ResultsCount = resultsCount
	return nil
}
func (s *fakeDiscoveryStore) ListRuns(ctx context.Context, exec store.Querier, filter store.ListDiscoveryRunsFilter) ([]*models.DiscoveryRun, error) {
	panic("not used by these tests")
}
func (s *fakeDiscoveryStore) EnqueueJob(ctx context.Context, exec store.Querier, job *models.QueueJob) error {
	return nil
}
func (s *fakeDiscoveryStore) ClaimNextJob(ctx context.Context, workerID string) (*models.QueueJob, error) {
	panic("not used by these tests")
}
func (s *fakeDiscoveryStore) CompleteJob(ctx context.Context, exec store.Querier, jobID uuid.UUID) error {
	panic("not used by these tests")
}
func (s *fakeDiscoveryStore) FailJob(ctx context.Context, exec store.Querier, jobID uuid.UUID, errMsg string, nextAttemptAt sql.NullTime, terminal bool) error {
	panic("not used by these tests")
}

// fakeCompetitorStore is an in-memory store.CompetitorStore, enforcing the
// same (organization_id, normalized_domain(website)) uniqueness the real
// adapter's index does (spec.md §3).
type fakeCompetitorStore struct {
	byID  map[uuid.UUID]*models.Competitor
	byKey map[string]*models.Competitor // organizationID|normalizedDomain
}

func newFakeCompetitorStore() *fakeCompetitorStore {
	return &fakeCompetitorStore{byID: map[uuid.UUID]*models.Competitor{}, byKey: map[string]*models.Competitor{}}
}

func competitorKey(orgID uuid.UUID, website string) string {
	return orgID.String() + "|" + dedup.NormalizeDomain(website)
}

func (s *fakeCompetitorStore) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}
func (s *fakeCompetitorStore) UpsertCandidate(ctx context.Context, exec store.Querier, c *models.Competitor) (bool, error) {
	key := competitorKey(c.OrganizationID, c.Website)
	if _, exists := s.byKey[key]; exists {
		return false, nil
	}
	s.byKey[key] = c
	s.byID[c.ID] = c
	return true, nil
}
func (s *fakeCompetitorStore) GetByID(ctx context.Context, exec store.Querier, id uuid.UUID) (*models.Competitor, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}
func (s *fakeCompetitorStore) GetByOrganizationAndWebsite(ctx context.Context, exec store.Querier, organizationID uuid.UUID, website string) (*models.Competitor, error) {
	c, ok := s.byKey[competitorKey(organizationID, website)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}
func (s *fakeCompetitorStore) ListByOrganization(ctx context.Context, exec store.Querier, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error) {
	var out []*models.Competitor
	for _, c := range s.byID {
		if c.OrganizationID == filter.OrganizationID {
			out = append(out, c)
		}
	}
	return &store.PaginatedResult[*models.Competitor]{Data: out}, nil
}
func (s *fakeCompetitorStore) ListByRun(ctx context.Context, exec store.Querier, runID uuid.UUID) ([]*models.Competitor, error) {
	panic("not used by these tests")
}
func (s *fakeCompetitorStore) SetValidationStatus(ctx context.Context, exec store.Querier, id uuid.UUID, status models.ValidationStatus, validatedBy uuid.UUID) error {
	c, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	c.ValidationStatus = status
	c.ValidatedBy = uuid.NullUUID{UUID: validatedBy, Valid: true}
	return nil
}
func (s *fakeCompetitorStore) ApplyEnrichmentPatch(ctx context.Context, exec store.Querier, id uuid.UUID, patch *models.CompetitorEnrichmentPatch) error {
	c, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if patch.ConfidenceScore != nil {
		c.ConfidenceScore = sql.NullInt64{Int64: int64(*patch.ConfidenceScore), Valid: true}
	}
	if patch.DataCompleteness != nil {
		c.DataCompleteness = sql.NullInt64{Int64: int64(*patch.DataCompleteness), Valid: true}
	}
	c.DataSources = patch.DataSources
	return nil
}
func (s *fakeCompetitorStore) ListEmbeddingsForOrganization(ctx context.Context, exec store.Querier, organizationID uuid.UUID) (map[uuid.UUID][]float32, error) {
	return nil, nil
}
func (s *fakeCompetitorStore) SetEmbedding(ctx context.Context, exec store.Querier, id uuid.UUID, embedding []float32) error {
	return nil
}

// fakeProjectLookup serves a single fixed project.
type fakeProjectLookup struct {
	project *models.Project
}

func (f fakeProjectLookup) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, store.ErrNotFound
	}
	return f.project, nil
}

// fakeSearchProvider implements searchprovider.Provider with a scripted
// sequence of outcomes, one per call (the last is reused once exhausted).
type fakeSearchProvider struct {
	name      string
	available bool
	outcomes  []searchprovider.SearchOutcome
	calls     int
}

func (p *fakeSearchProvider) Name() string     { return p.name }
func (p *fakeSearchProvider) IsAvailable() bool { return p.available }
func (p *fakeSearchProvider) Search(ctx context.Context, query string, opts searchprovider.SearchOptions) searchprovider.SearchOutcome {
	i := p.calls
	if i >= len(p.outcomes) {
		i = len(p.outcomes) - 1
	}
	p.calls++
	return p.outcomes[i]
}

// chatServer is a canned OpenAI-compatible chat-completions endpoint: each
// call returns the next response body in the queue (the content of the
// model's message), looping on the last once exhausted.
func chatServer(t *testing.T, responses ...string) *httptest.Server {
	t.Helper()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := calls
		if i >= len(responses) {
			i = len(responses) - 1
		}
		calls++
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": responses[i]}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testLLMClient(srv *httptest.Server) *llmclient.Client {
	return llmclient.New(llmclient.Config{APIKey: "test-key", BaseURL: srv.URL})
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Discovery: config.DiscoveryConfig{
			RelevanceThreshold:        0, // scoring.DefaultThreshold applies when <= 0
			MaxCandidatesPerRun:       20,
			QueryInterCallDelayMillis: 1,
			InterCallDelayMillis:      1,
		},
		Worker: config.WorkerConfig{MaxJobRetries: 2},
	}
}

// testJobCtx's Industries/Regions are chosen to line up with
// scenario1ExtractionResponse/scenario2ExtractionResponse's NG fintech/
// neobank candidates: industryScore and geoScore (internal/scoring) both
// match on these exact values, so every Nigerian fintech candidate clears
// scoring.DefaultThreshold (75) and every unrelated (news/directory)
// candidate stays well under it.
func testJobCtx(runID, orgID, projectID uuid.UUID) models.DiscoveryContext {
	return models.DiscoveryContext{
		RunID:          runID,
		ProjectID:      projectID,
		OrganizationID: orgID,
		ProjectName:    "Kudi",
		Description:    "mobile-first challenger bank for francophone Africa",
		Keywords:       []string{"neobank", "challenger bank"},
		Regions:        []string{"NG"},
		Industries:     []string{"neobank", "fintech"},
		MaxResults:     20,
	}
}

// buildOrchestrator wires an orchestrator directly (bypassing
// NewDiscoveryOrchestratorService's db/txm plumbing, since these tests pass
// db=nil and never touch a real *sqlx.DB) around the given search registry
// and LLM-backed extractor/scorer/deduper, matching how the constructor
// composes them.
func buildOrchestrator(t *testing.T, discoveryStore store.DiscoveryStore, competitorStore store.CompetitorStore, registry *searchprovider.Registry, llm *llmclient.Client) *orchestrator {
	t.Helper()
	return &orchestrator{
		discoveryStore:  discoveryStore,
		competitorStore: competitorStore,
		projects:        fakeProjectLookup{},
		providers:       registry,
		extractor:       competitor.New(llm),
		deduper:         dedup.New(nil),
		cfg:             testConfig(),
		sm:              NewDiscoveryStateMachine(),
	}
}

type scoredRaw struct {
	Name             string `json:"name"`
	Website          string `json:"website"`
	Description      string `json:"description"`
	Industry         string `json:"industry"`
	Country          string `json:"country"`
	BusinessModel    string `json:"businessModel"`
	ValueProposition string `json:"valueProposition"`
}

// scenario1ExtractionResponse is the extractor's basic-extraction response
// shape (internal/extraction/competitor.rawCandidate): an array of 7
// candidates. The 5 Nigerian fintech/neobank entries each score exactly 75
// (industryScore 30 + geoScore 25 + completenessScore 20, matching
// testJobCtx's Industries/Regions) and clear scoring.DefaultThreshold; the
// news/directory entries score well under it on missing industry/country/
// completeness fields.
func scenario1ExtractionResponse() string {
	candidates := []scoredRaw{
		{"Kuda", "https://kuda.com", "Digital bank for Africa", "neobank", "NG", "B2C", "Free banking for Africans"},
		{"Carbon", "https://carbon.ng", "Digital finance platform", "fintech", "NG", "B2C", "Instant loans and payments"},
		{"Fairmoney", "https://fairmoney.io", "Mobile lending app", "fintech", "NG", "B2C", "Credit scoring and loans"},
		{"Renmoney", "https://renmoney.com", "Digital lender", "fintech", "NG", "B2C", "Personal and business loans"},
		{"PiggyVest", "https://piggyvest.com", "Savings and investment app", "fintech", "NG", "B2C", "Automated savings"},
		{"NewsOutlet", "https://example-news.com", "A news aggregator", "media", "", "B2C", ""},
		{"Generic Directory", "https://example-directory.com", "", "", "", "", ""},
	}
	b, _ := json.Marshal(candidates)
	return string(b)
}

// scenario2ExtractionResponse mirrors 3 of the 4 Nigerian fintech candidates
// the fallback provider surfaced in TestRunDiscoveryJob_CreditsExhaustedFallbackEngaged,
// plus one irrelevant entry, so run.ResultsCount reflects exactly the
// fallback's own result set rather than scenario1's unrelated fixture.
func scenario2ExtractionResponse() string {
	candidates := []scoredRaw{
		{"Kuda", "https://kuda.com", "Digital bank for Africa", "neobank", "NG", "B2C", "Free banking for Africans"},
		{"Carbon", "https://carbon.ng", "Digital finance platform", "fintech", "NG", "B2C", "Instant loans and payments"},
		{"Fairmoney", "https://fairmoney.io", "Mobile lending app", "fintech", "NG", "B2C", "Credit scoring and loans"},
		{"NewsOutlet", "https://example-news.com", "A news aggregator", "media", "", "B2C", ""},
	}
	b, _ := json.Marshal(candidates)
	return string(b)
}

// TestRunDiscoveryJob_NeobankWestAfricaHappyPath is spec.md §8 scenario 1.
func TestRunDiscoveryJob_NeobankWestAfricaHappyPath(t *testing.T) {
	runID, orgID, projectID := uuid.New(), uuid.New(), uuid.New()

	discoveryStore := newFakeDiscoveryStore()
	discoveryStore.runs[runID] = &models.DiscoveryRun{ID: runID, ProjectID: projectID, Status: models.DiscoveryRunStatusPending}
	competitorStore := newFakeCompetitorStore()

	primary := &fakeSearchProvider{
		name:      "web_search_scrape",
		available: true,
		outcomes: []searchprovider.SearchOutcome{{
			OK:       true,
			Provider: "web_search_scrape",
			Results: []searchprovider.Result{
				{URL: "https://kuda.com", Title: "Kuda Bank"},
				{URL: "https://carbon.ng", Title: "Carbon"},
				{URL: "https://fairmoney.io", Title: "Fairmoney"},
				{URL: "https://renmoney.com", Title: "Renmoney"},
				{URL: "https://piggyvest.com", Title: "PiggyVest"},
			},
		}},
	}
	registry := searchprovider.NewRegistry(primary, nil)
	llm := testLLMClient(chatServer(t, scenario1ExtractionResponse()))

	o := buildOrchestrator(t, discoveryStore, competitorStore, registry, llm)

	err := o.RunDiscoveryJob(context.Background(), testJobCtx(runID, orgID, projectID))
	require.NoError(t, err)

	run := discoveryStore.runs[runID]
	assert.Equal(t, models.DiscoveryRunStatusCompleted, run.Status)
	assert.Equal(t, 5, run.ResultsCount, "5 Nigerian fintech/neobank candidates clear the threshold; news/directory noise is excluded")
	assert.GreaterOrEqual(t, primary.calls, 1, "every query builder output is tried against the primary provider")

	page, _ := competitorStore.ListByOrganization(context.Background(), nil, store.ListCompetitorsFilter{OrganizationID: orgID})
	assert.Len(t, page.Data, 5)
}

// TestRunDiscoveryJob_CreditsExhaustedFallbackEngaged is spec.md §8
// scenario 2: the primary provider reports insufficient_credits on its
// first (and only, for this project) call; the Worker must stop iterating
// primary attempts and invoke the AI fallback exactly once.
func TestRunDiscoveryJob_CreditsExhaustedFallbackEngaged(t *testing.T) {
	runID, orgID, projectID := uuid.New(), uuid.New(), uuid.New()

	discoveryStore := newFakeDiscoveryStore()
	discoveryStore.runs[runID] = &models.DiscoveryRun{ID: runID, ProjectID: projectID, Status: models.DiscoveryRunStatusPending}
	competitorStore := newFakeCompetitorStore()

	primary := &fakeSearchProvider{
		name:      "web_search_scrape",
		available: true,
		outcomes: []searchprovider.SearchOutcome{
			{OK: false, Provider: "web_search_scrape", Err: providererr.New(providererr.KindInsufficientCredits, fmt.Errorf("out of credits"))},
		},
	}
	fallback := &fakeSearchProvider{
		name:      "ai_fallback",
		available: true,
		outcomes: []searchprovider.SearchOutcome{{
			OK:       true,
			Provider: "ai_fallback",
			Results: []searchprovider.Result{
				{URL: "https://kuda.com", Title: "Kuda", Country: "NG"},
				{URL: "https://carbon.ng", Title: "Carbon", Country: "NG"},
				{URL: "https://fairmoney.io", Title: "Fairmoney", Country: "NG"},
				{URL: "https://renmoney.com", Title: "Renmoney", Country: "NG"},
				{URL: "https://example-news.com", Title: "News Outlet"},
				{URL: "https://example-directory.com", Title: "Directory"},
			},
		}},
	}
	registry := searchprovider.NewRegistry(primary, fallback)
	llm := testLLMClient(chatServer(t, scenario2ExtractionResponse()))

	o := buildOrchestrator(t, discoveryStore, competitorStore, registry, llm)

	err := o.RunDiscoveryJob(context.Background(), testJobCtx(runID, orgID, projectID))
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls, "primary iteration stops immediately on insufficient_credits")
	assert.Equal(t, 1, fallback.calls, "fallback invoked exactly once per run")

	run := discoveryStore.runs[runID]
	assert.Equal(t, models.DiscoveryRunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.ResultsCount, "3 Nigerian fintech candidates clear the threshold; the news entry does not")
}

// TestRunDiscoveryJob_EmptySearchCompletesWithZeroResults covers spec.md §8's
// boundary behavior: "Empty search result set from all providers -> run
// completes with results_count=0, status completed, no competitor rows."
func TestRunDiscoveryJob_EmptySearchCompletesWithZeroResults(t *testing.T) {
	runID, orgID, projectID := uuid.New(), uuid.New(), uuid.New()

	discoveryStore := newFakeDiscoveryStore()
	discoveryStore.runs[runID] = &models.DiscoveryRun{ID: runID, ProjectID: projectID, Status: models.DiscoveryRunStatusPending}
	competitorStore := newFakeCompetitorStore()

	primary := &fakeSearchProvider{
		name:      "web_search_scrape",
		available: true,
		outcomes:  []searchprovider.SearchOutcome{{OK: true, Provider: "web_search_scrape", Results: nil}},
	}
	registry := searchprovider.NewRegistry(primary, nil)
	llm := testLLMClient(chatServer(t, "[]"))

	o := buildOrchestrator(t, discoveryStore, competitorStore, registry, llm)

	err := o.RunDiscoveryJob(context.Background(), testJobCtx(runID, orgID, projectID))
	require.NoError(t, err)

	run := discoveryStore.runs[runID]
	assert.Equal(t, models.DiscoveryRunStatusCompleted, run.Status)
	assert.Equal(t, 0, run.ResultsCount)
}

// TestRunDiscoveryJob_SearchCancelledFailsRun exercises the per-job
// wall-clock cancellation path (spec.md §5 "a run whose job exceeds a
// per-job wall-clock budget is cancelled... marks the run failed").
func TestRunDiscoveryJob_SearchCancelledFailsRun(t *testing.T) {
	runID, orgID, projectID := uuid.New(), uuid.New(), uuid.New()

	discoveryStore := newFakeDiscoveryStore()
	discoveryStore.runs[runID] = &models.DiscoveryRun{ID: runID, ProjectID: projectID, Status: models.DiscoveryRunStatusPending}
	competitorStore := newFakeCompetitorStore()

	primary := &fakeSearchProvider{name: "web_search_scrape", available: true}
	registry := searchprovider.NewRegistry(primary, nil)
	llm := testLLMClient(chatServer(t, "[]"))

	o := buildOrchestrator(t, discoveryStore, competitorStore, registry, llm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.RunDiscoveryJob(ctx, testJobCtx(runID, orgID, projectID))
	require.Error(t, err)

	run := discoveryStore.runs[runID]
	assert.Equal(t, models.DiscoveryRunStatusFailed, run.Status)
}

// TestPersistCandidates_ConcurrentDuplicateConflictSkipped is spec.md §8
// scenario 4: two attempts to insert the same (org, domain) competitor; the
// second is a silent skip, not an error, and results_count reflects only
// each run's own accepted inserts.
func TestPersistCandidates_ConcurrentDuplicateConflictSkipped(t *testing.T) {
	orgID, projectID := uuid.New(), uuid.New()
	competitorStore := newFakeCompetitorStore()
	discoveryStore := newFakeDiscoveryStore()

	o := buildOrchestrator(t, discoveryStore, competitorStore, searchprovider.NewRegistry(nil, nil), nil)

	candidate := models.BasicCompetitor{Name: "Paystack", Website: "https://paystack.com", Description: "Payments API"}

	firstRunID := uuid.New()
	discoveryStore.runs[firstRunID] = &models.DiscoveryRun{ID: firstRunID, ProjectID: projectID}
	jc1 := models.DiscoveryContext{RunID: firstRunID, OrganizationID: orgID}
	persisted1, err := o.persistCandidates(context.Background(), jc1, []models.BasicCompetitor{candidate})
	require.NoError(t, err)
	assert.Equal(t, 1, persisted1)

	secondRunID := uuid.New()
	discoveryStore.runs[secondRunID] = &models.DiscoveryRun{ID: secondRunID, ProjectID: projectID}
	jc2 := models.DiscoveryContext{RunID: secondRunID, OrganizationID: orgID}
	persisted2, err := o.persistCandidates(context.Background(), jc2, []models.BasicCompetitor{candidate})
	require.NoError(t, err)
	assert.Equal(t, 0, persisted2, "second insert of the same domain is a silent conflict skip")

	page, _ := competitorStore.ListByOrganization(context.Background(), nil, store.ListCompetitorsFilter{OrganizationID: orgID})
	assert.Len(t, page.Data, 1)
}

// TestCreateRun_EmptyKeywordsRejected is spec.md §8 scenario 6: malformed
// project input never creates a run.
func TestCreateRun_EmptyKeywordsRejected(t *testing.T) {
	projectID := uuid.New()
	o := &orchestrator{
		discoveryStore: newFakeDiscoveryStore(),
		projects:       fakeProjectLookup{project: &models.Project{ID: projectID}},
		cfg:            testConfig(),
		sm:             NewDiscoveryStateMachine(),
	}

	run, err := o.CreateRun(context.Background(), models.RequestContext{OrganizationID: uuid.New()}, projectID, nil, []string{"us"}, nil, 0)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, IsValidation(err))
}

// TestEnrichCompetitor_MergesScrapeAboveInitialData is a lighter take on
// spec.md §8 scenario 5: it exercises the EnrichCompetitor wiring (website
// scrape -> Extractor -> patch persisted) rather than re-testing the
// social-metrics/SWOT internals, which internal/enrichment already covers
// directly.
func TestEnrichCompetitor_MergesScrapeAboveInitialData(t *testing.T) {
	orgID := uuid.New()
	competitorID := uuid.New()
	competitorStore := newFakeCompetitorStore()
	existing := &models.Competitor{
		ID:               competitorID,
		OrganizationID:   orgID,
		Name:             "Flutterwave",
		Website:          "https://flutterwave.com",
		ValidationStatus: models.ValidationStatusPending,
	}
	competitorStore.byID[competitorID] = existing
	competitorStore.byKey[competitorKey(orgID, existing.Website)] = existing

	enrichedJSON := `[{"name":"Flutterwave","website":"https://flutterwave.com","description":"Payments infrastructure for Africa","tagline":"Payments made easy","headquarters":"San Francisco"}]`
	llm := testLLMClient(chatServer(t, enrichedJSON))

	scraper := fakeScraperStub{pages: map[string]string{"https://flutterwave.com": "# Flutterwave\nPayments infrastructure for Africa."}}
	extractor := competitor.New(llm)

	o := &orchestrator{
		competitorStore: competitorStore,
		projects:        fakeProjectLookup{},
		cfg:             testConfig(),
		sm:              NewDiscoveryStateMachine(),
		enricher:        enrichment.New(scraper, extractor, llm),
	}

	rc := models.RequestContext{OrganizationID: orgID, Tier: models.OrgTierPremium}
	updated, err := o.EnrichCompetitor(context.Background(), rc, competitorID)
	require.NoError(t, err)
	assert.Contains(t, updated.DataSources, "website")
	assert.True(t, updated.ConfidenceScore.Valid)
}

type fakeScraperStub struct {
	pages map[string]string
}

func (f fakeScraperStub) Scrape(ctx context.Context, url string) (string, error) {
	if c, ok := f.pages[url]; ok {
		return c, nil
	}
	return "", fmt.Errorf("no page for %s", url)
}
