package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/compintel/discovery/internal/models"
)

// ProjectLookup is the external project/organization CRUD collaborator
// (spec.md §1's out-of-scope list: "project/organization CRUD ... are
// referenced only through the contracts the core requires from them").
// The orchestrator consults it to resolve a project's keywords/regions and
// to enforce the project-belongs-to-caller's-organization scope check.
type ProjectLookup interface {
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// QuotaChecker is the external billing/quota-accounting collaborator
// (spec.md §1, §6's "402 over quota"). A nil QuotaChecker wired into the
// Orchestrator disables quota enforcement entirely, rather than failing
// closed, since billing is explicitly out of this module's scope.
type QuotaChecker interface {
	CheckDiscoveryRunQuota(ctx context.Context, organizationID uuid.UUID, tier models.OrganizationTier) error
}
