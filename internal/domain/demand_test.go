package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemandStatus_IsValid(t *testing.T) {
	for _, status := range []DemandStatus{DemandOpen, DemandInProgress, DemandAwaitingClient, DemandConcluded, DemandCancelled} {
		assert.True(t, status.IsValid(), "status %q", status)
	}
	assert.False(t, DemandStatus("archived").IsValid())
	assert.False(t, DemandStatus("").IsValid())
}

func TestDemandStatus_IsTerminal(t *testing.T) {
	assert.True(t, DemandConcluded.IsTerminal())
	assert.True(t, DemandCancelled.IsTerminal())
	assert.False(t, DemandOpen.IsTerminal())
	assert.False(t, DemandInProgress.IsTerminal())
	assert.False(t, DemandAwaitingClient.IsTerminal())
}
