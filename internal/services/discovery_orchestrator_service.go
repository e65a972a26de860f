package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/compintel/discovery/internal/config"
	"github.com/compintel/discovery/internal/dedup"
	"github.com/compintel/discovery/internal/enrichment"
	"github.com/compintel/discovery/internal/extraction/competitor"
	"github.com/compintel/discovery/internal/llmclient"
	"github.com/compintel/discovery/internal/logging"
	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/monitoring"
	"github.com/compintel/discovery/internal/providererr"
	"github.com/compintel/discovery/internal/querybuilder"
	"github.com/compintel/discovery/internal/scoring"
	"github.com/compintel/discovery/internal/searchprovider"
	"github.com/compintel/discovery/internal/store"
	"github.com/compintel/discovery/internal/tracing"
	"github.com/compintel/discovery/internal/utils"
)

// DiscoveryOrchestratorService is the HTTP-facing core of the discovery
// pipeline (spec.md §6): it creates and inspects DiscoveryRuns, serves the
// Competitor read/validate/enrich operations, and runs the actual pipeline
// for a claimed queue job (called by the Worker Runtime, spec.md §4.8).
type DiscoveryOrchestratorService interface {
	CreateRun(ctx context.Context, rc models.RequestContext, projectID uuid.UUID, keywords, regions, industries []string, maxResults int) (*models.DiscoveryRun, error)
	GetRun(ctx context.Context, rc models.RequestContext, runID uuid.UUID) (*models.DiscoveryRun, error)
	ListRuns(ctx context.Context, rc models.RequestContext, projectID uuid.UUID) ([]*models.DiscoveryRun, error)

	ListCompetitors(ctx context.Context, rc models.RequestContext, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error)
	GetCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error)
	ValidateCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID, status models.ValidationStatus) (*models.Competitor, error)
	EnrichCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error)

	// RunDiscoveryJob executes the full pipeline (§4.1-§4.6) for one claimed
	// queue job. Called by the Worker Runtime, never directly by HTTP.
	RunDiscoveryJob(ctx context.Context, jobCtx models.DiscoveryContext) error
}

// searchResultLimit bounds each individual provider call (spec.md is silent
// on a literal number here; kept small since queries are already
// verticalized and a run fans out across up to querybuilder's five queries).
const searchResultLimit = 10

// providerRetryAttempts is how many times a ProviderTransient failure is
// retried before the query is skipped (spec.md §7 "Retry ... up to 2 times").
const providerRetryAttempts = 2

type orchestrator struct {
	discoveryStore  store.DiscoveryStore
	competitorStore store.CompetitorStore
	projects        ProjectLookup
	quota           QuotaChecker

	providers *searchprovider.Registry
	extractor *competitor.Extractor
	deduper   *dedup.Deduplicator
	enricher  *enrichment.Engine
	embedder  *llmclient.EmbeddingClient

	cfg *config.AppConfig
	sm  *DiscoveryStateMachine
	txm *utils.TransactionManager
}

// NewDiscoveryOrchestratorService wires the pipeline packages and stores
// into a DiscoveryOrchestratorService.
func NewDiscoveryOrchestratorService(
	discoveryStore store.DiscoveryStore,
	competitorStore store.CompetitorStore,
	projects ProjectLookup,
	quota QuotaChecker,
	providers *searchprovider.Registry,
	extractor *competitor.Extractor,
	deduper *dedup.Deduplicator,
	enricher *enrichment.Engine,
	embedder *llmclient.EmbeddingClient,
	cfg *config.AppConfig,
	db *sqlx.DB,
) DiscoveryOrchestratorService {
	var txm *utils.TransactionManager
	if db != nil {
		txm = utils.NewTransactionManager(db)
	}
	return &orchestrator{
		discoveryStore:  discoveryStore,
		competitorStore: competitorStore,
		projects:        projects,
		quota:           quota,
		providers:       providers,
		extractor:       extractor,
		deduper:         deduper,
		enricher:        enricher,
		embedder:        embedder,
		cfg:             cfg,
		sm:              NewDiscoveryStateMachine(),
		txm:             txm,
	}
}

// CreateRun validates the request against the project/quota collaborators,
// persists a pending DiscoveryRun, and enqueues its discover job (spec.md §6
// "POST /discovery/runs").
func (o *orchestrator) CreateRun(ctx context.Context, rc models.RequestContext, projectID uuid.UUID, keywords, regions, industries []string, maxResults int) (*models.DiscoveryRun, error) {
	if len(keywords) == 0 || len(regions) == 0 {
		return nil, NewError("CreateRun", KindValidation, fmt.Errorf("keywords and regions must not be empty"))
	}

	project, err := o.projects.GetProject(ctx, projectID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, NewError("CreateRun", KindAuthorizationScope, fmt.Errorf("project %s is not accessible to organization %s", projectID, rc.OrganizationID))
		}
		return nil, NewError("CreateRun", KindValidation, err)
	}
	if project.OrganizationID != rc.OrganizationID {
		return nil, NewError("CreateRun", KindAuthorizationScope, fmt.Errorf("project %s does not belong to organization %s", projectID, rc.OrganizationID))
	}

	if o.quota != nil {
		if err := o.quota.CheckDiscoveryRunQuota(ctx, rc.OrganizationID, rc.Tier); err != nil {
			return nil, NewError("CreateRun", KindQuota, err)
		}
	}

	run := &models.DiscoveryRun{
		ID:        uuid.New(),
		ProjectID: projectID,
		CreatedBy: rc.UserID,
		Status:    models.DiscoveryRunStatusPending,
		Keywords:  keywords,
		Regions:   regions,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.discoveryStore.CreateRun(ctx, nil, run); err != nil {
		return nil, err
	}

	effectiveMax := maxResults
	if effectiveMax <= 0 {
		effectiveMax = o.cfg.Discovery.MaxCandidatesPerRun
	}

	jobCtx := models.DiscoveryContext{
		RunID:          run.ID,
		ProjectID:      projectID,
		OrganizationID: rc.OrganizationID,
		UserID:         rc.UserID,
		ProjectName:    project.Name,
		Description:    project.Description,
		Keywords:       keywords,
		Regions:        regions,
		Industries:     industries,
		MaxResults:     effectiveMax,
		Tier:           rc.Tier,
	}
	payload, err := json.Marshal(jobCtx)
	if err != nil {
		return nil, NewError("CreateRun", KindValidation, fmt.Errorf("encoding job payload: %w", err))
	}
	job := &models.QueueJob{
		Kind:        models.JobKindDiscover,
		Payload:     payload,
		MaxAttempts: o.cfg.Worker.MaxJobRetries,
	}
	if err := o.discoveryStore.EnqueueJob(ctx, nil, job); err != nil {
		return nil, err
	}

	logging.GlobalDiscoveryLogger.LogStage(run.ID, "run_created", map[string]any{"projectId": projectID.String()})
	return run, nil
}

// GetRun fetches a run, enforcing organization scope via the project
// collaborator since DiscoveryRun carries no organization_id of its own.
func (o *orchestrator) GetRun(ctx context.Context, rc models.RequestContext, runID uuid.UUID) (*models.DiscoveryRun, error) {
	run, err := o.discoveryStore.GetRunByID(ctx, nil, runID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, NewError("GetRun", KindNotFound, err)
		}
		return nil, err
	}
	if err := o.checkRunScope(ctx, rc, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the latest 20 runs for a project (spec.md §6).
func (o *orchestrator) ListRuns(ctx context.Context, rc models.RequestContext, projectID uuid.UUID) ([]*models.DiscoveryRun, error) {
	project, err := o.projects.GetProject(ctx, projectID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, NewError("ListRuns", KindAuthorizationScope, err)
		}
		return nil, NewError("ListRuns", KindValidation, err)
	}
	if project.OrganizationID != rc.OrganizationID {
		return nil, NewError("ListRuns", KindAuthorizationScope, fmt.Errorf("project %s does not belong to organization %s", projectID, rc.OrganizationID))
	}

	filter := store.ListDiscoveryRunsFilter{
		ProjectID: uuid.NullUUID{UUID: projectID, Valid: true},
		Limit:     20,
	}
	return o.discoveryStore.ListRuns(ctx, nil, filter)
}

func (o *orchestrator) checkRunScope(ctx context.Context, rc models.RequestContext, run *models.DiscoveryRun) error {
	project, err := o.projects.GetProject(ctx, run.ProjectID)
	if err != nil || project.OrganizationID != rc.OrganizationID {
		return NewError("checkRunScope", KindNotFound, store.ErrNotFound)
	}
	return nil
}

// ListCompetitors always scopes the filter to the caller's organization,
// regardless of what the caller's query parameters asked for.
func (o *orchestrator) ListCompetitors(ctx context.Context, rc models.RequestContext, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error) {
	filter.OrganizationID = rc.OrganizationID
	return o.competitorStore.ListByOrganization(ctx, nil, filter)
}

func (o *orchestrator) GetCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error) {
	c, err := o.competitorStore.GetByID(ctx, nil, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, NewError("GetCompetitor", KindNotFound, err)
		}
		return nil, err
	}
	if c.OrganizationID != rc.OrganizationID {
		return nil, NewError("GetCompetitor", KindNotFound, store.ErrNotFound)
	}
	return c, nil
}

// ValidateCompetitor stamps a human-review decision (spec.md §6 "PATCH
// /competitors/:id/validate").
func (o *orchestrator) ValidateCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID, status models.ValidationStatus) (*models.Competitor, error) {
	if status != models.ValidationStatusApproved && status != models.ValidationStatusRejected {
		return nil, NewError("ValidateCompetitor", KindValidation, fmt.Errorf("status must be approved or rejected, got %q", status))
	}
	c, err := o.GetCompetitor(ctx, rc, id)
	if err != nil {
		return nil, err
	}
	if err := o.competitorStore.SetValidationStatus(ctx, nil, c.ID, status, rc.UserID); err != nil {
		return nil, err
	}
	return o.competitorStore.GetByID(ctx, nil, c.ID)
}

// EnrichCompetitor runs the Enrichment Engine for a single persisted
// competitor (spec.md §6 "POST /competitors/:id/enrich": includeSocialMedia
// and crawlDepth are always true/2; includeAiAnalysis defaults true but is
// gated off for the free tier per spec.md §9's tier-flag design note, since
// AI-analysis cost scales with tier in the source product).
func (o *orchestrator) EnrichCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error) {
	ctx, span := tracing.StartStage(ctx, "discovery.enrich")
	defer span.End()

	c, err := o.GetCompetitor(ctx, rc, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Website) == "" {
		return nil, NewError("EnrichCompetitor", KindValidation, fmt.Errorf("competitor %s has no website", id))
	}

	initial := enrichment.Initial{
		Name:        c.Name,
		Description: c.Description,
		Industry:    c.Industry,
		Country:     c.Country,
	}
	opts := enrichment.Options{
		IncludeSocialMedia: true,
		IncludeAIAnalysis:  rc.Tier != models.OrgTierFree,
		CrawlDepth:         2,
	}

	enriched, err := o.enricher.Enrich(ctx, c.Website, initial, opts)
	if err != nil {
		return nil, NewError("EnrichCompetitor", KindValidation, err)
	}

	patch := buildEnrichmentPatch(enriched)
	if err := o.competitorStore.ApplyEnrichmentPatch(ctx, nil, c.ID, patch); err != nil {
		return nil, err
	}

	monitoring.EnrichmentConfidence.Observe(float64(enriched.ConfidenceScore))
	logging.GlobalDiscoveryLogger.LogStage(uuid.Nil, "competitor_enriched", map[string]any{
		"competitorId":     c.ID.String(),
		"confidenceScore":  enriched.ConfidenceScore,
		"dataCompleteness": enriched.DataCompleteness,
	})

	return o.competitorStore.GetByID(ctx, nil, c.ID)
}

func buildEnrichmentPatch(e *models.EnrichedCompetitor) *models.CompetitorEnrichmentPatch {
	patch := &models.CompetitorEnrichmentPatch{
		Founders:         e.Fields.Founders,
		Investors:        e.Fields.Investors,
		Technologies:     e.Fields.Technologies,
		SocialLinks:      &e.Fields.SocialLinks,
		SocialMetrics:    &e.Fields.SocialMetrics,
		DataSources:      e.DataSources,
		ConfidenceScore:  &e.ConfidenceScore,
		DataCompleteness: &e.DataCompleteness,
	}
	if e.Fields.Tagline != "" {
		patch.Tagline = &e.Fields.Tagline
	}
	if e.Fields.Headquarters != "" {
		patch.Headquarters = &e.Fields.Headquarters
	}
	if e.Fields.FundingStage != "" {
		patch.FundingStage = &e.Fields.FundingStage
	}
	if e.Fields.TotalFunding != nil {
		patch.TotalFunding = e.Fields.TotalFunding
	}
	if e.Fields.SWOT != nil {
		patch.SWOT = e.Fields.SWOT
	}
	return patch
}

// RunDiscoveryJob executes §4.1-§4.6 synchronously for a single claimed job
// (spec.md §5 "Parallel workers each execute a single job synchronously
// end-to-end"). It never returns an error for conditions the pipeline is
// designed to absorb (spec.md §7); only PersistenceFatal and context
// cancellation bubble up, both of which the Worker Runtime treats as a
// reason to mark the run failed.
func (o *orchestrator) RunDiscoveryJob(ctx context.Context, jc models.DiscoveryContext) error {
	ctx, span := tracing.StartStage(ctx, "discovery.run")
	defer span.End()

	started := time.Now()
	status := string(models.DiscoveryRunStatusCompleted)
	defer func() {
		monitoring.RunDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	}()

	if err := o.advanceRun(ctx, jc.RunID, models.DiscoveryRunStatusSearching); err != nil {
		status = string(models.DiscoveryRunStatusFailed)
		return err
	}

	project := &models.Project{
		Name:        jc.ProjectName,
		Description: jc.Description,
		Keywords:    jc.Keywords,
		Industries:  jc.Industries,
		Regions:     jc.Regions,
	}
	queries := querybuilder.Build(project)
	logging.GlobalDiscoveryLogger.LogStage(jc.RunID, "queries_built", map[string]any{"count": len(queries)})

	industry := ""
	if len(jc.Industries) > 0 {
		industry = jc.Industries[0]
	}

	searchCtx, searchSpan := tracing.StartStage(ctx, "discovery.search")
	results, fellBackTo, err := o.collectSearchResults(searchCtx, jc, queries, industry)
	searchSpan.End()
	if err != nil {
		status = string(models.DiscoveryRunStatusFailed)
		_ = o.failRun(ctx, jc.RunID, "timeout")
		return err
	}
	logging.GlobalDiscoveryLogger.LogStage(jc.RunID, "search_completed", map[string]any{
		"resultCount": len(results),
		"fellBack":    fellBackTo,
	})

	if err := o.advanceRun(ctx, jc.RunID, models.DiscoveryRunStatusExtracting); err != nil {
		status = string(models.DiscoveryRunStatusFailed)
		return err
	}

	extractCtx, extractSpan := tracing.StartStage(ctx, "discovery.extract")
	tc := competitor.Context{Keywords: jc.Keywords, Regions: jc.Regions, Industry: industry}
	basics := o.extractor.Extract(extractCtx, results, tc)
	extractSpan.End()

	scoreCtx := scoring.Context{Industries: jc.Industries, Regions: jc.Regions, Now: time.Now()}
	threshold := int(o.cfg.Discovery.RelevanceThreshold)
	if threshold <= 0 {
		threshold = scoring.DefaultThreshold
	}
	var scored []models.BasicCompetitor
	for _, c := range basics {
		if scoring.Score(c, scoreCtx) >= threshold {
			scored = append(scored, c)
		}
	}

	existingDomains, existingEmbeddings, err := o.existingCorpus(ctx, jc.OrganizationID)
	if err != nil {
		log.Printf("RunDiscoveryJob[%s]: failed to load existing corpus, proceeding without cross-run dedup: %v", jc.RunID, err)
	}
	deduped := o.deduper.Dedupe(ctx, scored, existingDomains, existingEmbeddings)

	maxResults := jc.MaxResults
	if maxResults <= 0 {
		maxResults = o.cfg.Discovery.MaxCandidatesPerRun
	}
	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	persistCtx, persistSpan := tracing.StartStage(ctx, "discovery.persist")
	persisted, err := o.persistCandidates(persistCtx, jc, deduped)
	persistSpan.End()
	if err != nil {
		status = string(models.DiscoveryRunStatusFailed)
		_ = o.discoveryStore.UpdateRunStatus(ctx, nil, jc.RunID, models.DiscoveryRunStatusFailed, sql.NullString{String: err.Error(), Valid: true})
		return err
	}

	if err := o.discoveryStore.CompleteRun(ctx, nil, jc.RunID, persisted); err != nil {
		status = string(models.DiscoveryRunStatusFailed)
		return err
	}
	logging.GlobalDiscoveryLogger.LogStage(jc.RunID, "run_completed", map[string]any{"resultsCount": persisted})
	return nil
}

// collectSearchResults iterates the Query Builder's queries against the
// primary provider only, stopping as soon as one reports credit exhaustion
// (spec.md §4.2 "on insufficient_credits stop iterating further queries").
// If the aggregate is still empty once the loop ends - whether every query
// came back empty, the primary has no credential at all, or it was
// exhausted partway through - the AI fallback provider is invoked exactly
// once (spec.md §4.2 "on empty aggregate, invoke fallback once"), separated
// from the primary loop by the fixed inter-call delay spec.md §4.8
// mandates between provider calls. Results are deduplicated by URL across
// both providers before returning (spec.md §4.2).
func (o *orchestrator) collectSearchResults(ctx context.Context, jc models.DiscoveryContext, queries []string, industry string) ([]searchprovider.Result, bool, error) {
	interQuery := time.Duration(o.cfg.Discovery.QueryInterCallDelayMillis) * time.Millisecond
	interCall := time.Duration(o.cfg.Discovery.InterCallDelayMillis) * time.Millisecond

	var results []searchprovider.Result

	for i, q := range queries {
		if ctx.Err() != nil {
			return results, false, fmt.Errorf("search phase cancelled: %w", ctx.Err())
		}

		outcome := o.searchWithRetry(ctx, q)
		monitoring.ProviderCalls.WithLabelValues(outcome.Provider, outcomeLabel(outcome)).Inc()

		if outcome.OK {
			results = append(results, outcome.Results...)
		}
		if outcome.IsExhausted() {
			log.Printf("RunDiscoveryJob[%s]: primary provider exhausted, stopping query iteration", jc.RunID)
			break
		}
		// Any other failure (persistent transient/transport after retries, or
		// no primary credential at all) is logged by searchWithRetry and the
		// query is simply skipped, per spec.md §7.

		if i < len(queries)-1 {
			if !sleepCtx(ctx, interQuery) {
				return results, false, fmt.Errorf("search phase cancelled: %w", ctx.Err())
			}
		}
	}

	results = dedupeResultsByURL(results)
	if len(results) > 0 {
		return results, false, nil
	}

	if !sleepCtx(ctx, interCall) {
		return results, false, fmt.Errorf("search phase cancelled: %w", ctx.Err())
	}
	fallbackOutcome := o.providers.SearchFallbackOnly(ctx, searchprovider.FallbackInput{
		Keywords: jc.Keywords,
		Regions:  jc.Regions,
		Industry: industry,
		Limit:    searchResultLimit,
	})
	monitoring.ProviderCalls.WithLabelValues(fallbackOutcome.Provider, outcomeLabel(fallbackOutcome)).Inc()
	if !fallbackOutcome.OK {
		log.Printf("RunDiscoveryJob[%s]: AI fallback provider unavailable or failed: %v", jc.RunID, fallbackOutcome.Err)
		return results, false, nil
	}

	fallbackResults := dedupeResultsByURL(fallbackOutcome.Results)
	return fallbackResults, len(fallbackResults) > 0, nil
}

// dedupeResultsByURL keeps the first occurrence of each URL (case- and
// whitespace-insensitive), preserving order (spec.md §5 "competitor
// insertion order equals post-dedup iteration order").
func dedupeResultsByURL(results []searchprovider.Result) []searchprovider.Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]searchprovider.Result, 0, len(results))
	for _, r := range results {
		key := strings.ToLower(strings.TrimSpace(r.URL))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// searchWithRetry retries a ProviderTransient failure up to
// providerRetryAttempts times with exponential backoff (spec.md §7). It
// calls only the primary provider; fallback composition is the caller's job
// (collectSearchResults).
func (o *orchestrator) searchWithRetry(ctx context.Context, query string) searchprovider.SearchOutcome {
	backoff := 1 * time.Second
	var outcome searchprovider.SearchOutcome
	for attempt := 0; attempt <= providerRetryAttempts; attempt++ {
		outcome = o.providers.SearchPrimary(ctx, query, searchprovider.SearchOptions{Limit: searchResultLimit, ScrapeContent: true})
		if outcome.OK || outcome.IsExhausted() || !providererr.IsTransient(outcome.Err) {
			return outcome
		}
		if attempt < providerRetryAttempts {
			log.Printf("RunDiscoveryJob: transient search error for query %q (attempt %d/%d), retrying in %v: %v", query, attempt+1, providerRetryAttempts, backoff, outcome.Err)
			if !sleepCtx(ctx, backoff) {
				return outcome
			}
			backoff *= 2
		}
	}
	log.Printf("RunDiscoveryJob: query %q skipped after exhausting retries: %v", query, outcome.Err)
	return outcome
}

func outcomeLabel(o searchprovider.SearchOutcome) string {
	if o.OK {
		return "ok"
	}
	if o.Err == nil {
		return "unknown"
	}
	var pe *providererr.Error
	if errors.As(o.Err, &pe) {
		return string(pe.Kind)
	}
	return "unknown"
}

// existingCorpus loads the organization's current competitor domains and
// stored embeddings, used by the Deduplicator's cross-run stages.
func (o *orchestrator) existingCorpus(ctx context.Context, organizationID uuid.UUID) (map[string]struct{}, map[string][]float32, error) {
	page, err := o.competitorStore.ListByOrganization(ctx, nil, store.ListCompetitorsFilter{
		CursorPaginationFilter: store.CursorPaginationFilter{First: 500},
		OrganizationID:         organizationID,
	})
	if err != nil {
		return nil, nil, err
	}
	domains := make(map[string]struct{}, len(page.Data))
	for _, c := range page.Data {
		domains[dedup.NormalizeDomain(c.Website)] = struct{}{}
	}

	embeddings, err := o.competitorStore.ListEmbeddingsForOrganization(ctx, nil, organizationID)
	if err != nil {
		return domains, nil, err
	}
	byKey := make(map[string][]float32, len(embeddings))
	for id, vec := range embeddings {
		byKey[id.String()] = vec
	}
	return domains, byKey, nil
}

// persistCandidates upserts every deduped candidate inside a single
// transaction, stamping each with an embedding when the embedder is
// configured (spec.md §8 idempotence: a second identical run inserts 0).
func (o *orchestrator) persistCandidates(ctx context.Context, jc models.DiscoveryContext, candidates []models.BasicCompetitor) (int, error) {
	persisted := 0
	op := func(exec store.Querier) error {
		for _, c := range candidates {
			row := buildCompetitorRow(jc, c)
			wasNew, err := o.competitorStore.UpsertCandidate(ctx, exec, row)
			if err != nil {
				if store.IsConflict(err) {
					continue // already known, per spec.md §5 shared-resource policy
				}
				return err
			}
			if wasNew {
				persisted++
				if o.embedder != nil && o.embedder.IsAvailable() {
					if vec, embErr := o.embedder.Embed(ctx, dedup.Fingerprint(c)); embErr == nil {
						_ = o.competitorStore.SetEmbedding(ctx, exec, row.ID, vec)
					}
				}
			}
		}
		return nil
	}

	if o.txm != nil {
		if err := o.txm.WithTransaction(ctx, "persist_discovery_candidates", op); err != nil {
			return persisted, err
		}
		return persisted, nil
	}
	return persisted, op(nil)
}

func buildCompetitorRow(jc models.DiscoveryContext, c models.BasicCompetitor) *models.Competitor {
	now := time.Now().UTC()
	row := &models.Competitor{
		ID:               uuid.New(),
		OrganizationID:   jc.OrganizationID,
		SearchRunID:      uuid.NullUUID{UUID: jc.RunID, Valid: true},
		Name:             c.Name,
		Website:          c.Website,
		Description:      c.Description,
		Industry:         c.Industry,
		Country:          c.Country,
		ValidationStatus: models.ValidationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return row
}

// advanceRun moves a run to target, fetching its actual current status
// first so a retried job (which may already be past an earlier stage) never
// trips the partial-order guard by assuming a stale "from" status.
func (o *orchestrator) advanceRun(ctx context.Context, runID uuid.UUID, target models.DiscoveryRunStatus) error {
	run, err := o.discoveryStore.GetRunByID(ctx, nil, runID)
	if err != nil {
		return err
	}
	if run.Status == target {
		return nil
	}
	if err := o.sm.ValidateTransition(run.Status, target); err != nil {
		return NewError("advanceRun", KindValidation, err)
	}
	return o.discoveryStore.UpdateRunStatus(ctx, nil, runID, target, sql.NullString{})
}

func (o *orchestrator) failRun(ctx context.Context, runID uuid.UUID, reason string) error {
	return o.discoveryStore.UpdateRunStatus(ctx, nil, runID, models.DiscoveryRunStatusFailed, sql.NullString{String: reason, Valid: true})
}

// sleepCtx sleeps for d or returns false early if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
