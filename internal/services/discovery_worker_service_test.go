package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compintel/discovery/internal/config"
	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/store"
)

var errNoJobsStub = errors.New("no eligible jobs")

// stubDiscoveryStore implements store.DiscoveryStore, exercising only the
// job-queue methods the worker loop touches; the run-CRUD methods are
// unused by workerLoop/processJob and simply fail loudly if ever called.
type stubDiscoveryStore struct {
	claimNextJobFn func(ctx context.Context, workerID string) (*models.QueueJob, error)
	completeJobFn  func(ctx context.Context, exec store.Querier, jobID uuid.UUID) error
	failJobFn      func(ctx context.Context, exec store.Querier, jobID uuid.UUID, errMsg string, nextAttemptAt sql.NullTime, terminal bool) error
}

func (s *stubDiscoveryStore) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}
func (s *stubDiscoveryStore) CreateRun(ctx context.Context, exec store.Querier, run *models.DiscoveryRun) error {
	panic("not used by worker loop tests")
}
func (s *stubDiscoveryStore) GetRunByID(ctx context.Context, exec store.Querier, id uuid.UUID) (*models.DiscoveryRun, error) {
	panic("not used by worker loop tests")
}
func (s *stubDiscoveryStore) UpdateRunStatus(ctx context.Context, exec store.Querier, id uuid.UUID, status models.DiscoveryRunStatus, errMsg sql.NullString) error {
	panic("not used by worker loop tests")
}
func (s *stubDiscoveryStore) UpdateRunResultsCount(ctx context.Context, exec store.Querier, id uuid.UUID, count int) error {
	panic("not used by worker loop tests")
}
func (s *stubDiscoveryStore) CompleteRun(ctx context.Context, exec store.Querier, id uuid.UUID, resultsCount int) error {
	panic("not used by worker loop tests")
}
func (s *stubDiscoveryStore) ListRuns(ctx context.Context, exec store.Querier, filter store.ListDiscoveryRunsFilter) ([]*models.DiscoveryRun, error) {
	panic("not used by worker loop tests")
}
func (s *stubDiscoveryStore) EnqueueJob(ctx context.Context, exec store.Querier, job *models.QueueJob) error {
	panic("not used by worker loop tests")
}
func (s *stubDiscoveryStore) ClaimNextJob(ctx context.Context, workerID string) (*models.QueueJob, error) {
	return s.claimNextJobFn(ctx, workerID)
}
func (s *stubDiscoveryStore) CompleteJob(ctx context.Context, exec store.Querier, jobID uuid.UUID) error {
	return s.completeJobFn(ctx, exec, jobID)
}
func (s *stubDiscoveryStore) FailJob(ctx context.Context, exec store.Querier, jobID uuid.UUID, errMsg string, nextAttemptAt sql.NullTime, terminal bool) error {
	return s.failJobFn(ctx, exec, jobID, errMsg, nextAttemptAt, terminal)
}

// stubOrchestrator implements just enough of DiscoveryOrchestratorService
// for processJob: only RunDiscoveryJob is ever called from the worker loop.
type stubOrchestrator struct {
	runDiscoveryJobFn func(ctx context.Context, jc models.DiscoveryContext) error
}

func (s *stubOrchestrator) CreateRun(ctx context.Context, rc models.RequestContext, projectID uuid.UUID, keywords, regions, industries []string, maxResults int) (*models.DiscoveryRun, error) {
	panic("not used")
}
func (s *stubOrchestrator) GetRun(ctx context.Context, rc models.RequestContext, runID uuid.UUID) (*models.DiscoveryRun, error) {
	panic("not used")
}
func (s *stubOrchestrator) ListRuns(ctx context.Context, rc models.RequestContext, projectID uuid.UUID) ([]*models.DiscoveryRun, error) {
	panic("not used")
}
func (s *stubOrchestrator) ListCompetitors(ctx context.Context, rc models.RequestContext, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error) {
	panic("not used")
}
func (s *stubOrchestrator) GetCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error) {
	panic("not used")
}
func (s *stubOrchestrator) ValidateCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID, status models.ValidationStatus) (*models.Competitor, error) {
	panic("not used")
}
func (s *stubOrchestrator) EnrichCompetitor(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Competitor, error) {
	panic("not used")
}
func (s *stubOrchestrator) RunDiscoveryJob(ctx context.Context, jc models.DiscoveryContext) error {
	return s.runDiscoveryJobFn(ctx, jc)
}

func testQueueJob(t *testing.T) *models.QueueJob {
	t.Helper()
	payload, err := json.Marshal(models.DiscoveryContext{RunID: uuid.New(), OrganizationID: uuid.New()})
	require.NoError(t, err)
	return &models.QueueJob{ID: uuid.New(), Kind: models.JobKindDiscover, Payload: payload, MaxAttempts: 2}
}

// TestWorkerLoop_WakeChannelTriggersImmediateClaim exercises the wake-channel
// wiring added alongside DiscoveryJobListener: a signal on the listener's
// wake channel must trigger a claim attempt without waiting for the poll
// ticker, which here is set far longer than the test's deadline.
func TestWorkerLoop_WakeChannelTriggersImmediateClaim(t *testing.T) {
	job := testQueueJob(t)
	var claims int32
	var completed int32

	jobStore := &stubDiscoveryStore{
		claimNextJobFn: func(ctx context.Context, workerID string) (*models.QueueJob, error) {
			if atomic.AddInt32(&claims, 1) == 1 {
				return job, nil
			}
			return nil, store.NewError("ClaimNextJob", store.KindNotFound, errNoJobsStub)
		},
		completeJobFn: func(ctx context.Context, exec store.Querier, jobID uuid.UUID) error {
			assert.Equal(t, job.ID, jobID)
			atomic.AddInt32(&completed, 1)
			return nil
		},
		failJobFn: func(ctx context.Context, exec store.Querier, jobID uuid.UUID, errMsg string, nextAttemptAt sql.NullTime, terminal bool) error {
			t.Fatalf("unexpected job failure: %s", errMsg)
			return nil
		},
	}
	orch := &stubOrchestrator{
		runDiscoveryJobFn: func(ctx context.Context, jc models.DiscoveryContext) error { return nil },
	}

	listener := NewDiscoveryJobListener("", "worker-test")
	svc := &discoveryWorkerServiceImpl{
		jobStore:     jobStore,
		orchestrator: orch,
		workerID:     "worker-test",
		appConfig:    &config.AppConfig{},
		coordination: NewDiscoveryWorkerCoordination(nil, "worker-test"),
		listener:     listener,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		svc.workerLoop(ctx, "worker-test-0", time.Hour) // poll interval far longer than the test
		close(done)
	}()

	listener.wake <- struct{}{}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&completed) == 1
	}, time.Second, 10*time.Millisecond, "expected the wake signal to trigger a claim and completion")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workerLoop did not exit after context cancellation")
	}
}

// TestWorkerLoop_NilListenerFallsBackToPollOnly confirms a worker configured
// with no DSN (listener == nil) still claims jobs via its poll ticker alone.
func TestWorkerLoop_NilListenerFallsBackToPollOnly(t *testing.T) {
	job := testQueueJob(t)
	var completed int32

	jobStore := &stubDiscoveryStore{
		claimNextJobFn: func(ctx context.Context, workerID string) (*models.QueueJob, error) {
			if atomic.LoadInt32(&completed) == 0 {
				return job, nil
			}
			return nil, store.NewError("ClaimNextJob", store.KindNotFound, errNoJobsStub)
		},
		completeJobFn: func(ctx context.Context, exec store.Querier, jobID uuid.UUID) error {
			atomic.AddInt32(&completed, 1)
			return nil
		},
		failJobFn: func(ctx context.Context, exec store.Querier, jobID uuid.UUID, errMsg string, nextAttemptAt sql.NullTime, terminal bool) error {
			t.Fatalf("unexpected job failure: %s", errMsg)
			return nil
		},
	}
	orch := &stubOrchestrator{
		runDiscoveryJobFn: func(ctx context.Context, jc models.DiscoveryContext) error { return nil },
	}

	svc := &discoveryWorkerServiceImpl{
		jobStore:     jobStore,
		orchestrator: orch,
		workerID:     "worker-test",
		appConfig:    &config.AppConfig{},
		coordination: NewDiscoveryWorkerCoordination(nil, "worker-test"),
		listener:     nil,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		svc.workerLoop(ctx, "worker-test-0", 20*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&completed) >= 1
	}, time.Second, 10*time.Millisecond, "expected poll ticker alone to drive a claim")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workerLoop did not exit after context cancellation")
	}
}
