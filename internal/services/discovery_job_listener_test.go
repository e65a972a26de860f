package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiscoveryJobListener_WakeCoalesces(t *testing.T) {
	l := NewDiscoveryJobListener("", "worker-1")

	// Two sends without anyone draining Wake() must not block: the channel
	// is buffered 1 and listenOnce always does a non-blocking send.
	select {
	case l.wake <- struct{}{}:
	default:
		t.Fatal("expected first send to succeed on empty buffered channel")
	}
	select {
	case l.wake <- struct{}{}:
		t.Fatal("second send should have been dropped, not queued")
	default:
	}

	select {
	case <-l.Wake():
	default:
		t.Fatal("expected a pending wake signal")
	}
}

func TestDiscoveryJobListener_RunStopsOnContextCancellation(t *testing.T) {
	// An invalid DSN makes every connection attempt fail immediately, driving
	// Run into its backoff path; cancelling ctx must unblock it promptly
	// rather than waiting out the full backoff window.
	l := NewDiscoveryJobListener("invalid dsn that will never parse", "worker-1")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after context cancellation")
	}
}

func TestDiscoveryJobListener_RunReturnsImmediatelyOnAlreadyCancelledContext(t *testing.T) {
	l := NewDiscoveryJobListener("", "worker-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when ctx is already cancelled")
	}
	assert.Error(t, ctx.Err())
}
