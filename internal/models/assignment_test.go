package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentAccept(t *testing.T) {
	now := time.Now()

	a := &Assignment{Status: AssignmentStatusRequested}
	require.NoError(t, a.Accept("on my way", now))
	assert.Equal(t, AssignmentStatusAccepted, a.Status)
	assert.Equal(t, "on my way", a.Notes)
	require.NotNil(t, a.RespondedAt)
	assert.Equal(t, now, *a.RespondedAt)

	for _, status := range []AssignmentStatus{
		AssignmentStatusAccepted,
		AssignmentStatusDeclined,
		AssignmentStatusCompleted,
		AssignmentStatusCancelled,
	} {
		a := &Assignment{Status: status}
		assert.Error(t, a.Accept("", now), "accept from %s must fail", status)
	}
}

func TestAssignmentDecline(t *testing.T) {
	now := time.Now()

	a := &Assignment{Status: AssignmentStatusRequested}
	require.NoError(t, a.Decline("unavailable", now))
	assert.Equal(t, AssignmentStatusDeclined, a.Status)
	require.NotNil(t, a.RespondedAt)

	a = &Assignment{Status: AssignmentStatusAccepted}
	assert.Error(t, a.Decline("", now))
}

func TestAssignmentComplete(t *testing.T) {
	now := time.Now()

	a := &Assignment{Status: AssignmentStatusAccepted}
	require.NoError(t, a.Complete("done", now))
	assert.Equal(t, AssignmentStatusCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)

	a = &Assignment{Status: AssignmentStatusRequested}
	err := a.Complete("", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requested")
}

func TestAssignmentCancel(t *testing.T) {
	now := time.Now()

	t.Run("from requested", func(t *testing.T) {
		a := &Assignment{Status: AssignmentStatusRequested}
		wasAccepted, err := a.Cancel("", now)
		require.NoError(t, err)
		assert.False(t, wasAccepted)
		assert.Equal(t, AssignmentStatusCancelled, a.Status)
	})

	t.Run("from accepted reports the prior state", func(t *testing.T) {
		a := &Assignment{Status: AssignmentStatusAccepted}
		wasAccepted, err := a.Cancel("", now)
		require.NoError(t, err)
		assert.True(t, wasAccepted)
		assert.Equal(t, AssignmentStatusCancelled, a.Status)
	})

	t.Run("terminal states reject cancellation", func(t *testing.T) {
		for _, status := range []AssignmentStatus{
			AssignmentStatusDeclined,
			AssignmentStatusCompleted,
			AssignmentStatusCancelled,
		} {
			a := &Assignment{Status: status}
			_, err := a.Cancel("", now)
			assert.Error(t, err, "cancel from %s must fail", status)
		}
	})
}

func TestAssignmentStatusIsTerminal(t *testing.T) {
	assert.False(t, AssignmentStatusRequested.IsTerminal())
	assert.False(t, AssignmentStatusAccepted.IsTerminal())
	assert.True(t, AssignmentStatusDeclined.IsTerminal())
	assert.True(t, AssignmentStatusCompleted.IsTerminal())
	assert.True(t, AssignmentStatusCancelled.IsTerminal())
}
