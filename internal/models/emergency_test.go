package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolunteersNeeded(t *testing.T) {
	e := &EmergencyRequest{RequiredVolunteers: 3}

	assert.Equal(t, 3, e.VolunteersNeeded(0))
	assert.Equal(t, 1, e.VolunteersNeeded(2))
	assert.Equal(t, 0, e.VolunteersNeeded(3))
	// Over-acceptance never goes negative
	assert.Equal(t, 0, e.VolunteersNeeded(5))
}

func TestEscalate(t *testing.T) {
	now := time.Now()
	timeout := 30 * time.Minute

	t.Run("bumps priority, doubles radius, pushes expiry", func(t *testing.T) {
		e := &EmergencyRequest{
			Priority:       PriorityLow,
			SearchRadiusKm: 10,
		}
		e.Escalate(100, timeout, now)

		assert.Equal(t, 1, e.EscalationCount)
		assert.Equal(t, PriorityMedium, e.Priority)
		assert.Equal(t, 20.0, e.SearchRadiusKm)
		assert.Equal(t, now.Add(timeout), e.ExpiresAt)
	})

	t.Run("radius caps at the maximum", func(t *testing.T) {
		e := &EmergencyRequest{Priority: PriorityHigh, SearchRadiusKm: 80}
		e.Escalate(100, timeout, now)

		assert.Equal(t, 100.0, e.SearchRadiusKm)

		e.Escalate(100, timeout, now)
		assert.Equal(t, 100.0, e.SearchRadiusKm)
	})

	t.Run("critical stays critical", func(t *testing.T) {
		e := &EmergencyRequest{Priority: PriorityCritical, SearchRadiusKm: 10}
		e.Escalate(100, timeout, now)

		assert.Equal(t, PriorityCritical, e.Priority)
	})

	t.Run("priority climbs monotonically across repeated escalations", func(t *testing.T) {
		e := &EmergencyRequest{Priority: PriorityLow, SearchRadiusKm: 5}
		prev := e.Priority.Rank()
		for i := 0; i < 5; i++ {
			e.Escalate(100, timeout, now)
			assert.GreaterOrEqual(t, e.Priority.Rank(), prev)
			prev = e.Priority.Rank()
		}
		assert.Equal(t, PriorityCritical, e.Priority)
		assert.Equal(t, 5, e.EscalationCount)
	})
}

func TestEmergencyStatusTransitions(t *testing.T) {
	t.Run("open to assigned and back", func(t *testing.T) {
		e := &EmergencyRequest{Status: EmergencyStatusOpen}
		require.NoError(t, e.MarkAssigned())
		assert.Equal(t, EmergencyStatusAssigned, e.Status)

		require.NoError(t, e.Reopen())
		assert.Equal(t, EmergencyStatusOpen, e.Status)
	})

	t.Run("assigned cannot be marked assigned again", func(t *testing.T) {
		e := &EmergencyRequest{Status: EmergencyStatusAssigned}
		assert.Error(t, e.MarkAssigned())
	})

	t.Run("open cannot reopen", func(t *testing.T) {
		e := &EmergencyRequest{Status: EmergencyStatusOpen}
		assert.Error(t, e.Reopen())
	})

	t.Run("completion and cancellation from active states", func(t *testing.T) {
		for _, status := range []EmergencyStatus{EmergencyStatusOpen, EmergencyStatusAssigned} {
			e := &EmergencyRequest{Status: status}
			require.NoError(t, e.MarkCompleted(), "complete from %s", status)

			e = &EmergencyRequest{Status: status}
			require.NoError(t, e.MarkCancelled(), "cancel from %s", status)
		}
	})

	t.Run("terminal states stay terminal", func(t *testing.T) {
		for _, status := range []EmergencyStatus{EmergencyStatusCompleted, EmergencyStatusCancelled} {
			e := &EmergencyRequest{Status: status}
			assert.Error(t, e.MarkCompleted())
			assert.Error(t, e.MarkCancelled())
			assert.Error(t, e.MarkAssigned())
			assert.Error(t, e.Reopen())
			assert.True(t, status.IsTerminal())
		}
	})
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	e := &EmergencyRequest{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, e.IsExpired(now))

	e = &EmergencyRequest{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, e.IsExpired(now))
}

func TestPriorityLevel(t *testing.T) {
	assert.Equal(t, PriorityMedium, PriorityLow.Next())
	assert.Equal(t, PriorityHigh, PriorityMedium.Next())
	assert.Equal(t, PriorityCritical, PriorityHigh.Next())
	assert.Equal(t, PriorityCritical, PriorityCritical.Next())

	assert.True(t, PriorityLow.Rank() < PriorityMedium.Rank())
	assert.True(t, PriorityMedium.Rank() < PriorityHigh.Rank())
	assert.True(t, PriorityHigh.Rank() < PriorityCritical.Rank())

	assert.True(t, PriorityCritical.Valid())
	assert.False(t, PriorityLevel("urgent").Valid())
}
