// File: internal/store/postgres/discovery_store.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/store"
)

// DiscoveryStore is the Postgres-backed store.DiscoveryStore implementation.
type DiscoveryStore struct {
	db *sqlx.DB
}

// NewDiscoveryStore creates a new DiscoveryStore.
func NewDiscoveryStore(db *sqlx.DB) *DiscoveryStore {
	return &DiscoveryStore{db: db}
}

// BeginTxx starts a new transaction.
func (s *DiscoveryStore) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

func (s *DiscoveryStore) exec(exec store.Querier) store.Querier {
	if exec != nil {
		return exec
	}
	return s.db
}

// discoveryRunRow is the wire shape for search_runs: lib/pq requires text[]
// columns to be scanned/bound via pq.StringArray rather than a bare []string.
type discoveryRunRow struct {
	ID           uuid.UUID           `db:"id"`
	ProjectID    uuid.UUID           `db:"project_id"`
	CreatedBy    uuid.UUID           `db:"created_by"`
	Status       models.DiscoveryRunStatus `db:"status"`
	Keywords     pq.StringArray       `db:"keywords"`
	Regions      pq.StringArray       `db:"regions"`
	ResultsCount int                  `db:"results_count"`
	ErrorMessage sql.NullString       `db:"error_message"`
	CreatedAt    time.Time            `db:"created_at"`
	CompletedAt  sql.NullTime         `db:"completed_at"`
}

func (r discoveryRunRow) toModel() *models.DiscoveryRun {
	return &models.DiscoveryRun{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		CreatedBy:    r.CreatedBy,
		Status:       r.Status,
		Keywords:     []string(r.Keywords),
		Regions:      []string(r.Regions),
		ResultsCount: r.ResultsCount,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		CompletedAt:  r.CompletedAt,
	}
}

func runRowFromModel(run *models.DiscoveryRun) discoveryRunRow {
	return discoveryRunRow{
		ID:           run.ID,
		ProjectID:    run.ProjectID,
		CreatedBy:    run.CreatedBy,
		Status:       run.Status,
		Keywords:     pq.StringArray(run.Keywords),
		Regions:      pq.StringArray(run.Regions),
		ResultsCount: run.ResultsCount,
		ErrorMessage: run.ErrorMessage,
		CreatedAt:    run.CreatedAt,
		CompletedAt:  run.CompletedAt,
	}
}

// CreateRun inserts a new DiscoveryRun in status "pending".
func (s *DiscoveryStore) CreateRun(ctx context.Context, exec store.Querier, run *models.DiscoveryRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.DiscoveryRunStatusPending
	}

	q := `INSERT INTO search_runs (id, project_id, created_by, status, keywords, regions, results_count, created_at)
	      VALUES (:id, :project_id, :created_by, :status, :keywords, :regions, :results_count, :created_at)`
	_, err := s.exec(exec).NamedExecContext(ctx, q, runRowFromModel(run))
	if err != nil {
		return store.NewError("CreateRun", store.KindFatal, err)
	}
	return nil
}

// GetRunByID fetches a DiscoveryRun by its ID.
func (s *DiscoveryStore) GetRunByID(ctx context.Context, exec store.Querier, id uuid.UUID) (*models.DiscoveryRun, error) {
	var row discoveryRunRow
	err := s.exec(exec).GetContext(ctx, &row, `SELECT * FROM search_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.NewError("GetRunByID", store.KindFatal, err)
	}
	return row.toModel(), nil
}

// UpdateRunStatus moves a run to a new status, optionally recording an error.
func (s *DiscoveryStore) UpdateRunStatus(ctx context.Context, exec store.Querier, id uuid.UUID, status models.DiscoveryRunStatus, errMsg sql.NullString) error {
	res, err := s.exec(exec).ExecContext(ctx,
		`UPDATE search_runs SET status = $1, error_message = $2 WHERE id = $3`,
		status, errMsg, id)
	if err != nil {
		return store.NewError("UpdateRunStatus", store.KindFatal, err)
	}
	return checkRowsAffected(res, "UpdateRunStatus")
}

// UpdateRunResultsCount sets the results_count field (called as candidates persist).
func (s *DiscoveryStore) UpdateRunResultsCount(ctx context.Context, exec store.Querier, id uuid.UUID, count int) error {
	res, err := s.exec(exec).ExecContext(ctx, `UPDATE search_runs SET results_count = $1 WHERE id = $2`, count, id)
	if err != nil {
		return store.NewError("UpdateRunResultsCount", store.KindFatal, err)
	}
	return checkRowsAffected(res, "UpdateRunResultsCount")
}

// CompleteRun marks a run completed and stamps completed_at.
func (s *DiscoveryStore) CompleteRun(ctx context.Context, exec store.Querier, id uuid.UUID, resultsCount int) error {
	res, err := s.exec(exec).ExecContext(ctx,
		`UPDATE search_runs SET status = $1, results_count = $2, completed_at = $3 WHERE id = $4`,
		models.DiscoveryRunStatusCompleted, resultsCount, time.Now().UTC(), id)
	if err != nil {
		return store.NewError("CompleteRun", store.KindFatal, err)
	}
	return checkRowsAffected(res, "CompleteRun")
}

// ListRuns returns runs matching the filter, newest first.
func (s *DiscoveryStore) ListRuns(ctx context.Context, exec store.Querier, filter store.ListDiscoveryRunsFilter) ([]*models.DiscoveryRun, error) {
	clauses := ""
	args := []interface{}{}
	argN := 1

	if filter.ProjectID.Valid {
		clauses += fmt.Sprintf(" AND project_id = $%d", argN)
		args = append(args, filter.ProjectID.UUID)
		argN++
	}
	if filter.Status != "" {
		clauses += fmt.Sprintf(" AND status = $%d", argN)
		args = append(args, filter.Status)
		argN++
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT * FROM search_runs WHERE 1=1` + clauses +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, limit, filter.Offset)

	var rows []discoveryRunRow
	if err := s.exec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, store.NewError("ListRuns", store.KindFatal, err)
	}
	runs := make([]*models.DiscoveryRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, r.toModel())
	}
	return runs, nil
}

// EnqueueJob inserts a new durable queue job and issues a NOTIFY so any
// idle worker's LISTEN connection wakes immediately instead of waiting out
// its poll interval.
func (s *DiscoveryStore) EnqueueJob(ctx context.Context, exec store.Querier, job *models.QueueJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = 5
	}

	q := `INSERT INTO discovery_jobs (id, kind, payload, status, attempts, max_attempts, created_at, updated_at)
	      VALUES (:id, :kind, :payload, :status, :attempts, :max_attempts, :created_at, :updated_at)`
	if _, err := s.exec(exec).NamedExecContext(ctx, q, job); err != nil {
		return store.NewError("EnqueueJob", store.KindFatal, err)
	}

	// A missed NOTIFY is masked by the worker's poll ticker, so failure here
	// is not fatal to the enqueue.
	_, _ = s.exec(exec).ExecContext(ctx, `SELECT pg_notify('discovery_jobs', $1)`, job.ID.String())
	return nil
}

// ClaimNextJob atomically selects and marks running the oldest eligible
// queued job using SELECT ... FOR UPDATE SKIP LOCKED, so concurrently
// polling workers never double-claim a row.
func (s *DiscoveryStore) ClaimNextJob(ctx context.Context, workerID string) (*models.QueueJob, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, store.NewError("ClaimNextJob", store.KindTransient, err)
	}
	defer tx.Rollback()

	var job models.QueueJob
	err = tx.GetContext(ctx, &job, `
		SELECT * FROM discovery_jobs
		WHERE status = $1 AND (next_execution_at IS NULL OR next_execution_at <= now())
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, models.JobStatusQueued)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.NewError("ClaimNextJob", store.KindTransient, err)
	}

	job.Attempts++
	job.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE discovery_jobs SET status = $1, attempts = $2, updated_at = $3 WHERE id = $4`,
		models.JobStatusRunning, job.Attempts, job.UpdatedAt, job.ID); err != nil {
		return nil, store.NewError("ClaimNextJob", store.KindTransient, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, store.NewError("ClaimNextJob", store.KindTransient, err)
	}
	job.Status = models.JobStatusRunning
	return &job, nil
}

// CompleteJob marks a running job completed.
func (s *DiscoveryStore) CompleteJob(ctx context.Context, exec store.Querier, jobID uuid.UUID) error {
	res, err := s.exec(exec).ExecContext(ctx,
		`UPDATE discovery_jobs SET status = $1, updated_at = $2 WHERE id = $3`,
		models.JobStatusCompleted, time.Now().UTC(), jobID)
	if err != nil {
		return store.NewError("CompleteJob", store.KindFatal, err)
	}
	return checkRowsAffected(res, "CompleteJob")
}

// FailJob records a failure. When terminal (the worker passes true once
// attempts are exhausted), the job moves to "failed"; otherwise it's returned to
// "queued" with nextAttemptAt as its retry backoff.
func (s *DiscoveryStore) FailJob(ctx context.Context, exec store.Querier, jobID uuid.UUID, errMsg string, nextAttemptAt sql.NullTime, terminal bool) error {
	status := models.JobStatusQueued
	if terminal {
		status = models.JobStatusFailed
	}
	res, err := s.exec(exec).ExecContext(ctx,
		`UPDATE discovery_jobs SET status = $1, last_error = $2, next_execution_at = $3, updated_at = $4 WHERE id = $5`,
		status, errMsg, nextAttemptAt, time.Now().UTC(), jobID)
	if err != nil {
		return store.NewError("FailJob", store.KindFatal, err)
	}
	return checkRowsAffected(res, "FailJob")
}

func checkRowsAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return store.NewError(op, store.KindFatal, err)
	}
	if n == 0 {
		return store.NewError(op, store.KindNotFound, store.ErrNotFound)
	}
	return nil
}
