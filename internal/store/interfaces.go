// File: internal/store/interfaces.go
package store

import (
	"context"
	"database/sql"

	"github.com/compintel/discovery/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Querier defines methods that can be executed by both sqlx.DB and sqlx.Tx.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

// Transactor starts transactions for stores that support them.
type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ListDiscoveryRunsFilter scopes GET /discovery/runs.
type ListDiscoveryRunsFilter struct {
	ProjectID      uuid.NullUUID
	OrganizationID uuid.UUID
	Status         models.DiscoveryRunStatus
	Limit          int
	Offset         int
}

// DiscoveryStore persists DiscoveryRun records and the durable job queue.
type DiscoveryStore interface {
	Transactor

	CreateRun(ctx context.Context, exec Querier, run *models.DiscoveryRun) error
	GetRunByID(ctx context.Context, exec Querier, id uuid.UUID) (*models.DiscoveryRun, error)
	UpdateRunStatus(ctx context.Context, exec Querier, id uuid.UUID, status models.DiscoveryRunStatus, errMsg sql.NullString) error
	UpdateRunResultsCount(ctx context.Context, exec Querier, id uuid.UUID, count int) error
	CompleteRun(ctx context.Context, exec Querier, id uuid.UUID, resultsCount int) error
	ListRuns(ctx context.Context, exec Querier, filter ListDiscoveryRunsFilter) ([]*models.DiscoveryRun, error)

	// Durable job queue, consumed by the worker runtime.
	EnqueueJob(ctx context.Context, exec Querier, job *models.QueueJob) error
	// ClaimNextJob atomically selects and marks running the oldest eligible
	// queued job (status=queued, next_execution_at <= now), using
	// SELECT ... FOR UPDATE SKIP LOCKED so multiple workers never race on the
	// same row. Returns store.ErrNotFound if no job is eligible.
	ClaimNextJob(ctx context.Context, workerID string) (*models.QueueJob, error)
	CompleteJob(ctx context.Context, exec Querier, jobID uuid.UUID) error
	FailJob(ctx context.Context, exec Querier, jobID uuid.UUID, errMsg string, nextAttemptAt sql.NullTime, terminal bool) error
}

// ListCompetitorsFilter scopes GET /competitors.
type ListCompetitorsFilter struct {
	CursorPaginationFilter

	OrganizationID   uuid.UUID
	Industry         string
	Country          string
	ValidationStatus models.ValidationStatus
	MinRelevance     *int
}

// CompetitorStore persists Competitor records, including the idempotent
// upsert guarding against the same company surfacing twice for an
// organization, and the merge-only enrichment patch path.
type CompetitorStore interface {
	Transactor

	// UpsertCandidate inserts a Competitor for (organizationID, website), or
	// returns the existing row (store.ErrConflict-free) when the unique
	// (organization_id, normalized_domain(website)) index already has a
	// match, per spec.md's dedup-at-the-store-boundary requirement.
	UpsertCandidate(ctx context.Context, exec Querier, c *models.Competitor) (wasNew bool, err error)
	GetByID(ctx context.Context, exec Querier, id uuid.UUID) (*models.Competitor, error)
	GetByOrganizationAndWebsite(ctx context.Context, exec Querier, organizationID uuid.UUID, website string) (*models.Competitor, error)
	ListByOrganization(ctx context.Context, exec Querier, filter ListCompetitorsFilter) (*PaginatedResult[*models.Competitor], error)
	ListByRun(ctx context.Context, exec Querier, runID uuid.UUID) ([]*models.Competitor, error)

	SetValidationStatus(ctx context.Context, exec Querier, id uuid.UUID, status models.ValidationStatus, validatedBy uuid.UUID) error
	ApplyEnrichmentPatch(ctx context.Context, exec Querier, id uuid.UUID, patch *models.CompetitorEnrichmentPatch) error

	// ListEmbeddingsForOrganization supports semantic dedup (§4.5): all
	// previously stored embeddings for an organization, for cosine-similarity
	// comparison against a new candidate's embedding.
	ListEmbeddingsForOrganization(ctx context.Context, exec Querier, organizationID uuid.UUID) (map[uuid.UUID][]float32, error)
	SetEmbedding(ctx context.Context, exec Querier, id uuid.UUID, embedding []float32) error
}
