// File: internal/services/discovery_job_listener.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// jobNotifyChannel is the pg_notify channel DiscoveryStore.EnqueueJob signals
// on (internal/store/postgres/discovery_store.go).
const jobNotifyChannel = "discovery_jobs"

// DiscoveryJobListener holds a dedicated LISTEN connection so a worker can
// wake immediately on a new job instead of waiting out its poll interval.
// It is additive: a missed or dropped notification is always masked by the
// worker's poll ticker (discovery_worker_service.go), so this is a latency
// optimization, never a correctness requirement.
type DiscoveryJobListener struct {
	dsn     string
	wake    chan struct{}
	workerID string
}

// NewDiscoveryJobListener creates a listener. dsn must be a libpq-style
// connection string (the same one used to open the *sqlx.DB).
func NewDiscoveryJobListener(dsn, workerID string) *DiscoveryJobListener {
	return &DiscoveryJobListener{dsn: dsn, workerID: workerID, wake: make(chan struct{}, 1)}
}

// Wake fires (non-blocking, coalescing) whenever a discovery_jobs
// notification arrives.
func (l *DiscoveryJobListener) Wake() <-chan struct{} {
	return l.wake
}

// Run connects, issues LISTEN, and forwards notifications to Wake() until
// ctx is cancelled, reconnecting with backoff if the connection drops.
func (l *DiscoveryJobListener) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}
		if err := l.listenOnce(ctx); err != nil {
			log.Printf("DiscoveryJobListener [%s]: %v, reconnecting in %v", l.workerID, err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
	}
}

func (l *DiscoveryJobListener) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "LISTEN "+jobNotifyChannel); err != nil {
		return err
	}

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return err
		}
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}
