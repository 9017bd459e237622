package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locationPayload struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type emergencyPayload struct {
	Title    string `json:"title" validate:"required"`
	Priority string `json:"priority" validate:"required,is-priority"`
}

type skillPayload struct {
	Category string `json:"category" validate:"is-skill-category"`
}

func TestValidateCoordinateTags(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&locationPayload{Latitude: 43.24, Longitude: 76.89}))
	require.NoError(t, v.Validate(&locationPayload{Latitude: -90, Longitude: 180}))

	err := v.Validate(&locationPayload{Latitude: 91, Longitude: 0})
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Errors, "latitude")

	err = v.Validate(&locationPayload{Latitude: 0, Longitude: -200})
	require.Error(t, err)
	vErr, ok = err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Errors, "longitude")
}

func TestValidatePriorityTag(t *testing.T) {
	v := New()

	for _, p := range []string{"low", "medium", "high", "critical"} {
		assert.NoError(t, v.Validate(&emergencyPayload{Title: "flood", Priority: p}))
	}

	err := v.Validate(&emergencyPayload{Title: "flood", Priority: "urgent"})
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "Must be one of: low, medium, high, critical", vErr.Errors["priority"])
}

func TestValidateSkillCategoryTag(t *testing.T) {
	v := New()

	for _, c := range []string{"medical", "rescue", "logistics", "technical", "communication", "other"} {
		assert.NoError(t, v.Validate(&skillPayload{Category: c}))
	}
	// Empty passes, presence belongs to 'required'
	assert.NoError(t, v.Validate(&skillPayload{}))

	err := v.Validate(&skillPayload{Category: "cooking"})
	require.Error(t, err)
}

func TestValidateRequired(t *testing.T) {
	v := New()

	err := v.Validate(&emergencyPayload{Priority: "low"})
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "This field is required", vErr.Errors["title"])
}
