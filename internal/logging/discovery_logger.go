// Package logging provides minimal structured event logging for the
// discovery pipeline, modeled on internal/logging/extraction_logger.go: a
// thin wrapper over the standard logger emitting JSON lines, used for
// correlating the stages of a single discovery run rather than replacing
// the package-local log.Printf("Component: action detail") convention used
// throughout internal/searchprovider, internal/enrichment, etc.
package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

// DiscoveryLogger emits one JSON line per event, tagged with the owning
// discovery run so a log aggregator can correlate every step of a run.
type DiscoveryLogger struct{ logger *log.Logger }

// GlobalDiscoveryLogger is the process-wide instance, mirroring the
// teacher's GlobalExtractionLogger singleton.
var GlobalDiscoveryLogger = NewDiscoveryLogger()

// NewDiscoveryLogger creates a DiscoveryLogger writing JSON lines to stdout.
func NewDiscoveryLogger() *DiscoveryLogger {
	return &DiscoveryLogger{logger: log.New(os.Stdout, "", 0)}
}

// RunEvent is a single discovery-run log entry.
type RunEvent struct {
	Timestamp string         `json:"timestamp"`
	RunID     string         `json:"runId,omitempty"`
	Stage     string         `json:"stage"`
	Data      map[string]any `json:"data,omitempty"`
}

// LogStage records a named stage transition or milestone for runID (e.g.
// "query_built", "provider_exhausted", "candidates_scored", "run_completed").
func (l *DiscoveryLogger) LogStage(runID uuid.UUID, stage string, data map[string]any) {
	if l == nil || l.logger == nil {
		return
	}
	e := RunEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Stage:     stage,
		Data:      data,
	}
	if runID != uuid.Nil {
		e.RunID = runID.String()
	}
	if b, err := json.Marshal(e); err == nil {
		l.logger.Println(string(b))
	}
}
