// File: internal/models/discovery.go
package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DiscoveryRunStatus is the lifecycle status of a DiscoveryRun.
type DiscoveryRunStatus string

const (
	DiscoveryRunStatusPending    DiscoveryRunStatus = "pending"
	DiscoveryRunStatusSearching  DiscoveryRunStatus = "searching"
	DiscoveryRunStatusExtracting DiscoveryRunStatus = "extracting"
	DiscoveryRunStatusCompleted  DiscoveryRunStatus = "completed"
	DiscoveryRunStatusFailed     DiscoveryRunStatus = "failed"
)

// rank gives the monotonic ordering used to reject backward status transitions.
// pending < searching < extracting < (completed | failed).
func (s DiscoveryRunStatus) rank() int {
	switch s {
	case DiscoveryRunStatusPending:
		return 0
	case DiscoveryRunStatusSearching:
		return 1
	case DiscoveryRunStatusExtracting:
		return 2
	case DiscoveryRunStatusCompleted, DiscoveryRunStatusFailed:
		return 3
	default:
		return -1
	}
}

// IsValid reports whether s is one of the known statuses.
func (s DiscoveryRunStatus) IsValid() bool {
	return s.rank() >= 0
}

// IsTerminal reports whether s is a terminal (immutable) status.
func (s DiscoveryRunStatus) IsTerminal() bool {
	return s == DiscoveryRunStatusCompleted || s == DiscoveryRunStatusFailed
}

// CanTransitionTo reports whether moving from s to next respects the
// pending < searching < extracting < (completed | failed) partial order.
// Re-applying the same terminal status (idempotent re-completion) is allowed.
func (s DiscoveryRunStatus) CanTransitionTo(next DiscoveryRunStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return s == next
	}
	return next.rank() >= s.rank()
}

// DiscoveryRun is the unit of work for one discovery invocation.
type DiscoveryRun struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	ProjectID     uuid.UUID          `json:"projectId" db:"project_id"`
	CreatedBy     uuid.UUID          `json:"createdBy" db:"created_by"`
	Status        DiscoveryRunStatus `json:"status" db:"status"`
	Keywords      []string           `json:"keywords" db:"keywords"`
	Regions       []string           `json:"regions" db:"regions"`
	ResultsCount  int                `json:"resultsCount" db:"results_count"`
	ErrorMessage  sql.NullString     `json:"errorMessage,omitempty" db:"error_message"`
	CreatedAt     time.Time          `json:"createdAt" db:"created_at"`
	CompletedAt   sql.NullTime       `json:"completedAt,omitempty" db:"completed_at"`
}

// OrganizationTier is the subscription tier consulted to decide whether
// enrichment extras (AI analysis) run by default.
type OrganizationTier string

const (
	OrgTierFree    OrganizationTier = "free"
	OrgTierTrial   OrganizationTier = "trial"
	OrgTierPremium OrganizationTier = "premium"
)

// RequestContext carries the ambient tenant/user identity resolved by the
// (external) auth collaborator. It is passed explicitly down every call in
// the core instead of being read from query strings or hard-coded.
type RequestContext struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Tier           OrganizationTier
}

// JobKind enumerates QueueJob kinds understood by the worker runtime.
type JobKind string

const (
	JobKindDiscover JobKind = "discover"
)

// DiscoveryContext is the payload carried by a QueueJob of kind "discover".
type DiscoveryContext struct {
	RunID          uuid.UUID `json:"runId"`
	ProjectID      uuid.UUID `json:"projectId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	UserID         uuid.UUID `json:"userId"`
	ProjectName    string    `json:"projectName"`
	Description    string    `json:"description"`
	Keywords       []string  `json:"keywords"`
	Regions        []string  `json:"regions"`
	Industries     []string  `json:"industries"`
	MaxResults     int       `json:"maxResults"`
	Tier           OrganizationTier `json:"tier"`
}

// QueueJob is the internal durable-queue record. Not exposed outside the
// worker runtime.
type QueueJob struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Kind            JobKind          `json:"kind" db:"kind"`
	Payload         []byte           `json:"-" db:"payload"` // JSON-encoded DiscoveryContext
	Status          JobStatus        `json:"status" db:"status"`
	Attempts        int              `json:"attempts" db:"attempts"`
	MaxAttempts     int              `json:"maxAttempts" db:"max_attempts"`
	LastError       sql.NullString   `json:"lastError,omitempty" db:"last_error"`
	NextExecutionAt sql.NullTime     `json:"nextExecutionAt,omitempty" db:"next_execution_at"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" db:"updated_at"`
}

// JobStatus is the lifecycle status of a QueueJob.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Project is the external collaborator's project summary, as consulted by
// the discovery pipeline (the full CRUD model lives outside this module).
type Project struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Keywords       []string  `json:"keywords" db:"keywords"`
	Industries     []string  `json:"industries" db:"industries"`
	Regions        []string  `json:"regions" db:"regions"`
}
