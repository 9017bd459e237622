package services

import (
	"testing"

	"crisislink_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
)

func TestRankVolunteerMatches(t *testing.T) {
	matches := []*dto.VolunteerMatch{
		{VolunteerID: "far-tied", Score: 70, DistanceKm: 8},
		{VolunteerID: "best", Score: 90, DistanceKm: 5},
		{VolunteerID: "near-tied", Score: 70, DistanceKm: 3},
		{VolunteerID: "worst", Score: 40, DistanceKm: 1},
	}

	rankVolunteerMatches(matches)

	got := make([]string, len(matches))
	for i, m := range matches {
		got[i] = m.VolunteerID
	}
	assert.Equal(t, []string{"best", "near-tied", "far-tied", "worst"}, got)
}

func TestRankEmergencyMatches(t *testing.T) {
	matches := []*dto.EmergencyMatch{
		{EmergencyID: "far-tied", Score: 55, DistanceKm: 9.5},
		{EmergencyID: "near-tied", Score: 55, DistanceKm: 2.5},
		{EmergencyID: "top", Score: 80, DistanceKm: 6},
	}

	rankEmergencyMatches(matches)

	assert.Equal(t, "top", matches[0].EmergencyID)
	assert.Equal(t, "near-tied", matches[1].EmergencyID)
	assert.Equal(t, "far-tied", matches[2].EmergencyID)
}
