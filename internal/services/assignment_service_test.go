package services

import (
	"testing"

	"crisislink_backend/internal/models"
	"crisislink_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assignmentFixture struct {
	emergencies *fakeEmergencyRepo
	assignments *fakeAssignmentRepo
	volunteers  *fakeVolunteerRepo
	activity    *fakeActivityRepo
	svc         AssignmentService
}

func newAssignmentFixture(emergencies []*models.EmergencyRequest, assignments []*models.Assignment, volunteers []*models.VolunteerProfile) *assignmentFixture {
	f := &assignmentFixture{
		emergencies: newFakeEmergencyRepo(emergencies...),
		volunteers:  newFakeVolunteerRepo(volunteers...),
		activity:    &fakeActivityRepo{},
	}
	f.assignments = newFakeAssignmentRepo(f.emergencies, assignments...)
	f.svc = NewAssignmentService(newStubDB(), f.assignments, f.emergencies, f.volunteers, f.activity, nil)
	return f
}

func volunteerProfile(id, userID string) *models.VolunteerProfile {
	return &models.VolunteerProfile{
		BaseModel:          models.BaseModel{ID: id},
		UserID:             userID,
		AvailabilityStatus: models.AvailabilityAvailable,
	}
}

func TestAssignmentAccept(t *testing.T) {
	t.Run("filling the last slot freezes the emergency", func(t *testing.T) {
		f := newAssignmentFixture(
			[]*models.EmergencyRequest{{
				BaseModel:          models.BaseModel{ID: "em-1"},
				AuthorityID:        "authority-1",
				Title:              "Flooded basement",
				Status:             models.EmergencyStatusOpen,
				RequiredVolunteers: 1,
			}},
			[]*models.Assignment{
				{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusRequested},
				{BaseModel: models.BaseModel{ID: "as-2"}, EmergencyID: "em-1", VolunteerID: "vol-2", Status: models.AssignmentStatusRequested},
			},
			[]*models.VolunteerProfile{
				volunteerProfile("vol-1", "user-1"),
				volunteerProfile("vol-2", "user-2"),
			},
		)

		resp, err := f.svc.Accept("as-1", "user-1", &dto.AssignmentActionRequest{}, nil)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusAccepted, resp.Status)

		assert.Equal(t, models.EmergencyStatusAssigned, f.emergencies.emergencies["em-1"].Status)
		assert.Contains(t, f.emergencies.transitions, "em-1:open->assigned")
		assert.Contains(t, f.volunteers.availability, "vol-1:busy")

		// The sibling request is withdrawn once the emergency is staffed
		assert.Equal(t, models.AssignmentStatusCancelled, f.assignments.assignments["as-2"].Status)
		assert.Contains(t, f.activity.notifications, "authority-1:assignment_update")
	})

	t.Run("emergency stays open while slots remain", func(t *testing.T) {
		f := newAssignmentFixture(
			[]*models.EmergencyRequest{{
				BaseModel:          models.BaseModel{ID: "em-1"},
				AuthorityID:        "authority-1",
				Status:             models.EmergencyStatusOpen,
				RequiredVolunteers: 2,
			}},
			[]*models.Assignment{
				{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusRequested},
			},
			[]*models.VolunteerProfile{volunteerProfile("vol-1", "user-1")},
		)

		_, err := f.svc.Accept("as-1", "user-1", &dto.AssignmentActionRequest{}, nil)
		require.NoError(t, err)

		assert.Equal(t, models.EmergencyStatusOpen, f.emergencies.emergencies["em-1"].Status)
		assert.Empty(t, f.emergencies.transitions)
	})

	t.Run("only the assigned volunteer may accept", func(t *testing.T) {
		f := newAssignmentFixture(
			[]*models.EmergencyRequest{{
				BaseModel:          models.BaseModel{ID: "em-1"},
				Status:             models.EmergencyStatusOpen,
				RequiredVolunteers: 1,
			}},
			[]*models.Assignment{
				{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusRequested},
			},
			[]*models.VolunteerProfile{
				volunteerProfile("vol-1", "user-1"),
				volunteerProfile("vol-2", "user-2"),
			},
		)

		_, err := f.svc.Accept("as-1", "user-2", &dto.AssignmentActionRequest{}, nil)
		assert.Error(t, err)
		assert.Equal(t, models.AssignmentStatusRequested, f.assignments.assignments["as-1"].Status)
	})
}

func TestAssignmentComplete(t *testing.T) {
	fixture := func(required int, extra ...*models.Assignment) *assignmentFixture {
		assignments := append([]*models.Assignment{
			{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusAccepted},
		}, extra...)
		return newAssignmentFixture(
			[]*models.EmergencyRequest{{
				BaseModel:          models.BaseModel{ID: "em-1"},
				AuthorityID:        "authority-1",
				Status:             models.EmergencyStatusAssigned,
				RequiredVolunteers: required,
			}},
			assignments,
			[]*models.VolunteerProfile{
				volunteerProfile("vol-1", "user-1"),
				volunteerProfile("vol-2", "user-2"),
			},
		)
	}

	t.Run("last completion closes the emergency", func(t *testing.T) {
		f := fixture(1)

		resp, err := f.svc.Complete("as-1", "authority-1", models.UserRoleAuthority, &dto.AssignmentActionRequest{Notes: "all clear"}, nil)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusCompleted, resp.Status)

		assert.Equal(t, models.EmergencyStatusCompleted, f.emergencies.emergencies["em-1"].Status)
		assert.Contains(t, f.emergencies.transitions, "em-1:assigned->completed")
		assert.Contains(t, f.volunteers.availability, "vol-1:available")
	})

	t.Run("emergency stays live while other volunteers are still out", func(t *testing.T) {
		f := fixture(2, &models.Assignment{
			BaseModel: models.BaseModel{ID: "as-2"}, EmergencyID: "em-1", VolunteerID: "vol-2", Status: models.AssignmentStatusAccepted,
		})

		_, err := f.svc.Complete("as-1", "authority-1", models.UserRoleAuthority, &dto.AssignmentActionRequest{}, nil)
		require.NoError(t, err)

		assert.Equal(t, models.EmergencyStatusAssigned, f.emergencies.emergencies["em-1"].Status)
		assert.Empty(t, f.emergencies.transitions)
	})

	t.Run("owning volunteer may report completion", func(t *testing.T) {
		f := fixture(1)

		resp, err := f.svc.Complete("as-1", "user-1", models.UserRoleVolunteer, &dto.AssignmentActionRequest{}, nil)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusCompleted, resp.Status)
		assert.Equal(t, models.EmergencyStatusCompleted, f.emergencies.emergencies["em-1"].Status)
	})

	t.Run("other volunteers may not", func(t *testing.T) {
		f := fixture(1)

		_, err := f.svc.Complete("as-1", "user-2", models.UserRoleVolunteer, &dto.AssignmentActionRequest{}, nil)
		assert.Error(t, err)
		assert.Equal(t, models.AssignmentStatusAccepted, f.assignments.assignments["as-1"].Status)
	})

	t.Run("other authorities may not", func(t *testing.T) {
		f := fixture(1)

		_, err := f.svc.Complete("as-1", "authority-2", models.UserRoleAuthority, &dto.AssignmentActionRequest{}, nil)
		assert.Error(t, err)
	})
}

func TestAssignmentCancel(t *testing.T) {
	t.Run("cancelling an accepted assignment reopens the emergency", func(t *testing.T) {
		f := newAssignmentFixture(
			[]*models.EmergencyRequest{{
				BaseModel:          models.BaseModel{ID: "em-1"},
				AuthorityID:        "authority-1",
				Status:             models.EmergencyStatusAssigned,
				RequiredVolunteers: 1,
			}},
			[]*models.Assignment{
				{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusAccepted},
			},
			[]*models.VolunteerProfile{volunteerProfile("vol-1", "user-1")},
		)

		resp, err := f.svc.Cancel("as-1", "authority-1", models.UserRoleAuthority, &dto.AssignmentActionRequest{Notes: "no longer needed"}, nil)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusCancelled, resp.Status)

		assert.Contains(t, f.emergencies.transitions, "em-1:assigned->open")
		assert.Contains(t, f.volunteers.availability, "vol-1:available")
	})

	t.Run("cancelling a pending request leaves the emergency alone", func(t *testing.T) {
		f := newAssignmentFixture(
			[]*models.EmergencyRequest{{
				BaseModel:          models.BaseModel{ID: "em-1"},
				AuthorityID:        "authority-1",
				Status:             models.EmergencyStatusOpen,
				RequiredVolunteers: 1,
			}},
			[]*models.Assignment{
				{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusRequested},
			},
			[]*models.VolunteerProfile{volunteerProfile("vol-1", "user-1")},
		)

		_, err := f.svc.Cancel("as-1", "authority-1", models.UserRoleAuthority, &dto.AssignmentActionRequest{}, nil)
		require.NoError(t, err)

		assert.Empty(t, f.emergencies.transitions)
		assert.Empty(t, f.volunteers.availability)
	})
}
