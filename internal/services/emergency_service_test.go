package services

import (
	"testing"
	"time"

	"crisislink_backend/internal/config"
	"crisislink_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTestConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	cfg := &config.Config{}
	cfg.Matching.DefaultSearchRadiusKm = 10
	cfg.Matching.MaxSearchRadiusKm = 100
	cfg.Matching.EscalationTimeoutMinutes = 30
	cfg.Matching.MaxAutoEscalations = 3
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestProcessTimeouts(t *testing.T) {
	seedTestConfig(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	emergencies := []*models.EmergencyRequest{
		{
			BaseModel:          models.BaseModel{ID: "em-understaffed"},
			AuthorityID:        "authority-1",
			Status:             models.EmergencyStatusOpen,
			Priority:           models.PriorityMedium,
			RequiredVolunteers: 1,
			SearchRadiusKm:     10,
			ExpiresAt:          past,
		},
		{
			BaseModel:          models.BaseModel{ID: "em-staffed"},
			AuthorityID:        "authority-1",
			Status:             models.EmergencyStatusAssigned,
			Priority:           models.PriorityHigh,
			RequiredVolunteers: 1,
			SearchRadiusKm:     10,
			ExpiresAt:          past,
		},
		{
			BaseModel:          models.BaseModel{ID: "em-fresh"},
			AuthorityID:        "authority-1",
			Status:             models.EmergencyStatusOpen,
			Priority:           models.PriorityLow,
			RequiredVolunteers: 1,
			SearchRadiusKm:     10,
			ExpiresAt:          future,
		},
		{
			BaseModel:          models.BaseModel{ID: "em-capped"},
			AuthorityID:        "authority-1",
			Status:             models.EmergencyStatusOpen,
			Priority:           models.PriorityCritical,
			RequiredVolunteers: 1,
			SearchRadiusKm:     80,
			EscalationCount:    3,
			ExpiresAt:          past,
		},
	}

	emergencyRepo := newFakeEmergencyRepo(emergencies...)
	assignRepo := newFakeAssignmentRepo(emergencyRepo,
		&models.Assignment{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-staffed", VolunteerID: "vol-1", Status: models.AssignmentStatusAccepted},
	)
	volunteerRepo := newFakeVolunteerRepo()
	activityRepo := &fakeActivityRepo{}

	db := newStubDB()
	matching := NewMatchingService(db, volunteerRepo, emergencyRepo, assignRepo, activityRepo)
	svc := NewEmergencyService(db, emergencyRepo, assignRepo, volunteerRepo, newFakeSkillRepo(), activityRepo, matching)

	escalated, err := svc.ProcessTimeouts()
	require.NoError(t, err)
	assert.Equal(t, []string{"em-understaffed"}, escalated)

	bumped := emergencyRepo.emergencies["em-understaffed"]
	assert.Equal(t, models.PriorityHigh, bumped.Priority)
	assert.Equal(t, 1, bumped.EscalationCount)
	assert.Equal(t, 20.0, bumped.SearchRadiusKm)
	assert.True(t, bumped.ExpiresAt.After(time.Now()))
	assert.Contains(t, activityRepo.actions, "automatic_escalation")

	// Fully staffed: deadline moves out, nothing else changes
	staffed := emergencyRepo.emergencies["em-staffed"]
	assert.Equal(t, models.PriorityHigh, staffed.Priority)
	assert.Zero(t, staffed.EscalationCount)
	assert.True(t, staffed.ExpiresAt.After(time.Now()))

	// Not yet expired, or already at the automatic escalation cap
	assert.Equal(t, future, emergencyRepo.emergencies["em-fresh"].ExpiresAt)
	assert.Equal(t, 3, emergencyRepo.emergencies["em-capped"].EscalationCount)
	assert.Equal(t, 80.0, emergencyRepo.emergencies["em-capped"].SearchRadiusKm)
}
