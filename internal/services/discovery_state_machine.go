package services

import (
	"fmt"
	"log"

	"github.com/compintel/discovery/internal/models"
)

// allDiscoveryRunStatuses enumerates the lifecycle in rank order, used only
// to answer GetValidTransitions.
var allDiscoveryRunStatuses = []models.DiscoveryRunStatus{
	models.DiscoveryRunStatusPending,
	models.DiscoveryRunStatusSearching,
	models.DiscoveryRunStatusExtracting,
	models.DiscoveryRunStatusCompleted,
	models.DiscoveryRunStatusFailed,
}

// DiscoveryStateMachine validates DiscoveryRun status transitions against the
// partial order pending < searching < extracting < (completed | failed)
// (spec.md §7, §8: "no backward transition is ever observed"). The ordering
// itself is carried by models.DiscoveryRunStatus.CanTransitionTo; this type
// adds the orchestrator-facing logging and error-wrapping the teacher's
// CampaignStateMachine provides around models.PhaseStatusEnum.
type DiscoveryStateMachine struct{}

// NewDiscoveryStateMachine creates a DiscoveryStateMachine.
func NewDiscoveryStateMachine() *DiscoveryStateMachine {
	return &DiscoveryStateMachine{}
}

// ValidateTransition returns an error if moving a run from current to target
// would violate the partial order.
func (sm *DiscoveryStateMachine) ValidateTransition(current, target models.DiscoveryRunStatus) error {
	if !current.CanTransitionTo(target) {
		log.Printf("DiscoveryStateMachine: rejected invalid transition %s -> %s", current, target)
		return fmt.Errorf("invalid discovery run transition from %s to %s", current, target)
	}
	return nil
}

// GetValidTransitions returns every status current may legally move to.
func (sm *DiscoveryStateMachine) GetValidTransitions(current models.DiscoveryRunStatus) []models.DiscoveryRunStatus {
	var valid []models.DiscoveryRunStatus
	for _, next := range allDiscoveryRunStatuses {
		if current.CanTransitionTo(next) {
			valid = append(valid, next)
		}
	}
	return valid
}
