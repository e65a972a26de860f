package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

// staleWorkerThreshold is how long since the last heartbeat before a worker
// row is considered dead and eligible for cleanup.
const staleWorkerThreshold = 90 * time.Second

// DiscoveryWorkerCoordination is the direct generalization of the teacher's
// WorkerCoordinationService: a heartbeat row per live worker process, used
// only for operational visibility (GetWorkerStats) and stale-row cleanup.
// Unlike the teacher, the discovery pipeline's single job kind is claimed
// via DiscoveryStore.ClaimNextJob's SELECT ... FOR UPDATE SKIP LOCKED, so
// this type carries no resource-lock or per-campaign-type bookkeeping.
type DiscoveryWorkerCoordination struct {
	db       *sqlx.DB
	workerID string
	ticker   *time.Ticker
}

// NewDiscoveryWorkerCoordination creates a coordinator. db may be nil, in
// which case heartbeats and cleanup are no-ops (used in tests).
func NewDiscoveryWorkerCoordination(db *sqlx.DB, workerID string) *DiscoveryWorkerCoordination {
	return &DiscoveryWorkerCoordination{db: db, workerID: workerID}
}

// Start registers the worker row and begins periodic heartbeats until ctx
// is cancelled.
func (c *DiscoveryWorkerCoordination) Start(ctx context.Context) {
	if c.db == nil {
		return
	}
	c.heartbeat(ctx)
	c.ticker = time.NewTicker(10 * time.Second)
	go func() {
		defer c.ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.ticker.C:
				c.heartbeat(ctx)
			}
		}
	}()
}

func (c *DiscoveryWorkerCoordination) heartbeat(ctx context.Context) {
	metadata, _ := json.Marshal(map[string]any{"pid_worker": c.workerID})
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO discovery_worker_heartbeats (worker_id, status, last_heartbeat, metadata, created_at, updated_at)
		VALUES ($1, 'idle', NOW(), $2, NOW(), NOW())
		ON CONFLICT (worker_id) DO UPDATE SET
			status = 'idle', last_heartbeat = NOW(), metadata = EXCLUDED.metadata, updated_at = NOW()`,
		c.workerID, metadata)
	if err != nil {
		log.Printf("DiscoveryWorkerCoordination [%s]: heartbeat failed: %v", c.workerID, err)
	}
}

// MarkBusy/MarkIdle record the worker's current activity for GetWorkerStats.
func (c *DiscoveryWorkerCoordination) MarkBusy(ctx context.Context, jobID string) {
	c.setStatus(ctx, "busy", jobID)
}

func (c *DiscoveryWorkerCoordination) MarkIdle(ctx context.Context) {
	c.setStatus(ctx, "idle", "")
}

func (c *DiscoveryWorkerCoordination) setStatus(ctx context.Context, status, jobID string) {
	if c.db == nil {
		return
	}
	metadata, _ := json.Marshal(map[string]any{"job_id": jobID})
	if _, err := c.db.ExecContext(ctx, `
		UPDATE discovery_worker_heartbeats SET status = $1, metadata = $2, updated_at = NOW() WHERE worker_id = $3`,
		status, metadata, c.workerID); err != nil {
		log.Printf("DiscoveryWorkerCoordination [%s]: status update failed: %v", c.workerID, err)
	}
}

// CleanupStaleWorkers deletes heartbeat rows older than staleWorkerThreshold,
// run periodically by every worker service instance (spec.md §4.8 carries the
// teacher's CleanupStaleWorkers convention); there is no election, and
// concurrent runs are harmless since the delete is idempotent.
func (c *DiscoveryWorkerCoordination) CleanupStaleWorkers(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM discovery_worker_heartbeats WHERE last_heartbeat < $1`,
		time.Now().UTC().Add(-staleWorkerThreshold))
	if err != nil {
		return fmt.Errorf("cleanup stale workers: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("DiscoveryWorkerCoordination: cleaned up %d stale worker rows", n)
	}
	return nil
}

// GetWorkerStats reports the live worker count for operational endpoints.
func (c *DiscoveryWorkerCoordination) GetWorkerStats(ctx context.Context) (map[string]any, error) {
	if c.db == nil {
		return map[string]any{"coordinationEnabled": false}, nil
	}
	var total, busy int
	if err := c.db.GetContext(ctx, &total, `SELECT count(*) FROM discovery_worker_heartbeats`); err != nil {
		return nil, err
	}
	if err := c.db.GetContext(ctx, &busy, `SELECT count(*) FROM discovery_worker_heartbeats WHERE status = 'busy'`); err != nil {
		return nil, err
	}
	return map[string]any{
		"coordinationEnabled": true,
		"totalWorkers":        total,
		"busyWorkers":         busy,
	}, nil
}
