package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compintel/discovery/internal/models"
)

func TestDiscoveryStateMachine_ValidateTransition(t *testing.T) {
	sm := NewDiscoveryStateMachine()

	tests := []struct {
		name    string
		current models.DiscoveryRunStatus
		target  models.DiscoveryRunStatus
		wantErr bool
	}{
		{"pending to searching", models.DiscoveryRunStatusPending, models.DiscoveryRunStatusSearching, false},
		{"searching to extracting", models.DiscoveryRunStatusSearching, models.DiscoveryRunStatusExtracting, false},
		{"extracting to completed", models.DiscoveryRunStatusExtracting, models.DiscoveryRunStatusCompleted, false},
		{"pending to failed directly", models.DiscoveryRunStatusPending, models.DiscoveryRunStatusFailed, false},
		{"backward transition rejected", models.DiscoveryRunStatusExtracting, models.DiscoveryRunStatusSearching, true},
		{"completed is terminal", models.DiscoveryRunStatusCompleted, models.DiscoveryRunStatusSearching, true},
		{"idempotent re-completion allowed", models.DiscoveryRunStatusCompleted, models.DiscoveryRunStatusCompleted, false},
		{"unknown status rejected", models.DiscoveryRunStatus("bogus"), models.DiscoveryRunStatusSearching, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := sm.ValidateTransition(tc.current, tc.target)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiscoveryStateMachine_GetValidTransitions(t *testing.T) {
	sm := NewDiscoveryStateMachine()

	valid := sm.GetValidTransitions(models.DiscoveryRunStatusSearching)
	assert.ElementsMatch(t, []models.DiscoveryRunStatus{
		models.DiscoveryRunStatusSearching,
		models.DiscoveryRunStatusExtracting,
		models.DiscoveryRunStatusCompleted,
		models.DiscoveryRunStatusFailed,
	}, valid)

	terminalValid := sm.GetValidTransitions(models.DiscoveryRunStatusFailed)
	assert.Equal(t, []models.DiscoveryRunStatus{models.DiscoveryRunStatusFailed}, terminalValid)
}
