package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/compintel/discovery/internal/config"
	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/monitoring"
	"github.com/compintel/discovery/internal/store"
)

// Default worker settings if not provided by config, mirroring the
// teacher's campaign_worker_service.go constants.
const (
	workerPollIntervalDefault    = 5 * time.Second
	workerErrorRetryDelayDefault = 30 * time.Second
	workerMaxRetriesDefault      = 2
	workerJobWallClockDefault    = 600 * time.Second
)

// DiscoveryWorkerService is the Worker Runtime (spec.md §4.8): it claims
// queued discover jobs and runs each one synchronously end-to-end through
// the DiscoveryOrchestratorService, handling retry/backoff and graceful
// shutdown.
type DiscoveryWorkerService interface {
	StartWorkers(ctx context.Context, numWorkers int)
	GetWorkerStats(ctx context.Context) (map[string]any, error)
}

type discoveryWorkerServiceImpl struct {
	jobStore     store.DiscoveryStore
	orchestrator DiscoveryOrchestratorService
	workerID     string
	appConfig    *config.AppConfig
	coordination *DiscoveryWorkerCoordination
	listener     *DiscoveryJobListener
}

// NewDiscoveryWorkerService creates a DiscoveryWorkerService. dsn, when
// non-empty, is used to open a dedicated LISTEN connection (via pgx) so
// workers wake immediately on a new job instead of waiting out the poll
// interval; an empty dsn falls back to poll-only, matching the teacher's
// campaign_worker_service.go behavior exactly.
func NewDiscoveryWorkerService(
	jobStore store.DiscoveryStore,
	orchestrator DiscoveryOrchestratorService,
	serverInstanceID string,
	appCfg *config.AppConfig,
	db *sqlx.DB,
	dsn string,
) DiscoveryWorkerService {
	workerID := serverInstanceID
	if workerID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = uuid.NewString()
		}
		workerID = fmt.Sprintf("discovery-worker-%s", host)
	}

	var listener *DiscoveryJobListener
	if dsn != "" {
		listener = NewDiscoveryJobListener(dsn, workerID)
	}

	return &discoveryWorkerServiceImpl{
		jobStore:     jobStore,
		orchestrator: orchestrator,
		workerID:     workerID,
		appConfig:    appCfg,
		coordination: NewDiscoveryWorkerCoordination(db, workerID),
		listener:     listener,
	}
}

// StartWorkers launches numWorkers goroutines polling the job queue, and
// blocks until ctx is cancelled and every worker has exited cleanly
// (spec.md §4.8 "graceful shutdown": in-flight jobs run to completion).
func (s *discoveryWorkerServiceImpl) StartWorkers(ctx context.Context, numWorkers int) {
	if s.jobStore == nil {
		log.Printf("DiscoveryWorkerService [%s]: ERROR - job store is nil, cannot start workers", s.workerID)
		return
	}
	if numWorkers <= 0 {
		numWorkers = s.appConfig.Worker.NumWorkers
	}
	if numWorkers <= 0 {
		numWorkers = 5
	}

	pollInterval := time.Duration(s.appConfig.Worker.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = workerPollIntervalDefault
	}

	s.coordination.Start(ctx)
	if s.listener != nil {
		go s.listener.Run(ctx)
		log.Printf("DiscoveryWorkerService [%s]: LISTEN/NOTIFY wakeup enabled", s.workerID)
	}

	log.Printf("DiscoveryWorkerService [%s]: starting %d workers (poll interval %v)", s.workerID, numWorkers, pollInterval)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			workerName := fmt.Sprintf("%s-%d", s.workerID, workerNum)
			log.Printf("Worker [%s]: started", workerName)
			s.workerLoop(ctx, workerName, pollInterval)
			log.Printf("Worker [%s]: stopped", workerName)
		}(i)
	}

	s.runStaleWorkerCleanup(ctx)
	wg.Wait()
	log.Printf("DiscoveryWorkerService [%s]: all workers have stopped", s.workerID)
}

func (s *discoveryWorkerServiceImpl) runStaleWorkerCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.coordination.CleanupStaleWorkers(ctx); err != nil {
					log.Printf("DiscoveryWorkerService [%s]: stale worker cleanup failed: %v", s.workerID, err)
				}
			}
		}
	}()
}

func (s *discoveryWorkerServiceImpl) workerLoop(ctx context.Context, workerName string, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var wake <-chan struct{}
	if s.listener != nil {
		wake = s.listener.Wake()
	}

	claimAndProcess := func() {
		job, err := s.jobStore.ClaimNextJob(ctx, workerName)
		if store.IsNotFound(err) {
			return
		}
		if err != nil {
			log.Printf("Worker [%s]: error claiming next job: %v", workerName, err)
			return
		}
		log.Printf("Worker [%s]: claimed job %s (kind=%s, attempt=%d)", workerName, job.ID, job.Kind, job.Attempts)
		s.processJob(ctx, job, workerName)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimAndProcess()
		case <-wake:
			claimAndProcess()
		}
	}
}

// processJob runs one claimed job to completion, applying the wallclock
// timeout and attempts/backoff bookkeeping from spec.md §7's
// PersistenceFatal/Timeout propagation rule.
func (s *discoveryWorkerServiceImpl) processJob(ctx context.Context, job *models.QueueJob, workerName string) {
	// Detached from ctx's cancellation so a shutdown lets the claimed job
	// finish and record its outcome; the wall-clock timeout below bounds it.
	ctx = context.WithoutCancel(ctx)
	s.coordination.MarkBusy(ctx, job.ID.String())
	defer s.coordination.MarkIdle(ctx)

	wallClock := time.Duration(s.appConfig.Worker.JobWallClockSeconds) * time.Second
	if wallClock <= 0 {
		wallClock = workerJobWallClockDefault
	}
	jobCtx, cancel := context.WithTimeout(ctx, wallClock)
	defer cancel()

	var jc models.DiscoveryContext
	if err := json.Unmarshal(job.Payload, &jc); err != nil {
		s.finishFailedJob(ctx, job, workerName, fmt.Errorf("decoding job payload: %w", err))
		return
	}

	if job.Kind != models.JobKindDiscover {
		s.finishFailedJob(ctx, job, workerName, fmt.Errorf("unknown job kind %q", job.Kind))
		return
	}

	err := s.orchestrator.RunDiscoveryJob(jobCtx, jc)
	if err != nil {
		log.Printf("Worker [%s]: job %s (run %s) failed: %v", workerName, job.ID, jc.RunID, err)
		s.finishFailedJob(ctx, job, workerName, err)
		return
	}

	if err := s.jobStore.CompleteJob(ctx, nil, job.ID); err != nil {
		log.Printf("Worker [%s]: CRITICAL - failed to mark job %s completed: %v", workerName, job.ID, err)
		return
	}
	monitoring.JobOutcomes.WithLabelValues(string(job.Kind), "completed").Inc()
	log.Printf("Worker [%s]: job %s (run %s) completed", workerName, job.ID, jc.RunID)
}

// finishFailedJob applies the retry/backoff or terminal-failure bookkeeping
// for a job whose run either errored or timed out, mirroring the teacher's
// processJob max-retries branch in campaign_worker_service.go.
func (s *discoveryWorkerServiceImpl) finishFailedJob(ctx context.Context, job *models.QueueJob, workerName string, jobErr error) {
	maxRetries := job.MaxAttempts
	if maxRetries <= 0 {
		maxRetries = s.appConfig.Worker.MaxJobRetries
		if maxRetries <= 0 {
			maxRetries = workerMaxRetriesDefault
		}
	}

	terminal := job.Attempts >= maxRetries
	var nextAttemptAt sql.NullTime
	if !terminal {
		retryDelay := time.Duration(s.appConfig.Worker.ErrorRetryDelaySeconds) * time.Second
		if retryDelay <= 0 {
			retryDelay = workerErrorRetryDelayDefault
		}
		nextAttemptAt = sql.NullTime{Time: time.Now().UTC().Add(retryDelay), Valid: true}
	}

	if err := s.jobStore.FailJob(ctx, nil, job.ID, jobErr.Error(), nextAttemptAt, terminal); err != nil {
		log.Printf("Worker [%s]: CRITICAL - failed to record failure for job %s: %v", workerName, job.ID, err)
	}

	if terminal {
		log.Printf("Worker [%s]: job %s failed permanently after %d attempts: %v", workerName, job.ID, job.Attempts, jobErr)
		monitoring.JobOutcomes.WithLabelValues(string(job.Kind), "failed").Inc()
		return
	}
	log.Printf("Worker [%s]: job %s will retry (attempt %d/%d): %v", workerName, job.ID, job.Attempts, maxRetries, jobErr)
	monitoring.JobOutcomes.WithLabelValues(string(job.Kind), "retried").Inc()
}

// GetWorkerStats reports live worker coordination statistics.
func (s *discoveryWorkerServiceImpl) GetWorkerStats(ctx context.Context) (map[string]any, error) {
	return s.coordination.GetWorkerStats(ctx)
}
