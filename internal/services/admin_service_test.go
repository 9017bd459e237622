package services

import (
	"testing"

	"crisislink_backend/internal/models"
	"crisislink_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	users       *fakeUserRepo
	volunteers  *fakeVolunteerRepo
	emergencies *fakeEmergencyRepo
	assignments *fakeAssignmentRepo
	activity    *fakeActivityRepo
	svc         AdminService
}

func newAdminFixture(users []*models.User, emergencies []*models.EmergencyRequest, assignments []*models.Assignment, volunteers []*models.VolunteerProfile) *adminFixture {
	f := &adminFixture{
		users:       newFakeUserRepo(users...),
		volunteers:  newFakeVolunteerRepo(volunteers...),
		emergencies: newFakeEmergencyRepo(emergencies...),
		activity:    &fakeActivityRepo{},
	}
	f.assignments = newFakeAssignmentRepo(f.emergencies, assignments...)
	f.svc = NewAdminService(newStubDB(), f.users, f.volunteers, newFakeSkillRepo(), f.emergencies, f.assignments, f.activity)
	return f
}

func TestBlockUser(t *testing.T) {
	blockReq := &dto.BlockUserRequest{Reason: "abuse"}

	t.Run("volunteer is pulled out of live assignments", func(t *testing.T) {
		profile := volunteerProfile("vol-1", "user-1")
		f := newAdminFixture(
			[]*models.User{
				{BaseModel: models.BaseModel{ID: "user-1"}, Role: models.UserRoleVolunteer, IsActive: true, VolunteerProfile: profile},
			},
			[]*models.EmergencyRequest{{
				BaseModel:          models.BaseModel{ID: "em-1"},
				AuthorityID:        "authority-1",
				Status:             models.EmergencyStatusAssigned,
				RequiredVolunteers: 1,
			}},
			[]*models.Assignment{
				{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusAccepted},
			},
			[]*models.VolunteerProfile{profile},
		)

		require.NoError(t, f.svc.BlockUser("user-1", "admin-1", blockReq, nil))

		assert.Contains(t, f.users.active, "user-1:false")
		assert.Contains(t, f.users.revoked, "user-1")
		assert.Contains(t, f.volunteers.availability, "vol-1:offline")

		assert.Equal(t, models.AssignmentStatusCancelled, f.assignments.assignments["as-1"].Status)
		// Losing the only accepted volunteer reopens the emergency
		assert.Contains(t, f.emergencies.transitions, "em-1:assigned->open")
		assert.Contains(t, f.activity.actions, "user_blocked")
	})

	t.Run("authority block cancels its open emergencies", func(t *testing.T) {
		f := newAdminFixture(
			[]*models.User{
				{BaseModel: models.BaseModel{ID: "authority-1"}, Role: models.UserRoleAuthority, IsActive: true},
			},
			[]*models.EmergencyRequest{
				{BaseModel: models.BaseModel{ID: "em-1"}, AuthorityID: "authority-1", Status: models.EmergencyStatusOpen, RequiredVolunteers: 2},
				{BaseModel: models.BaseModel{ID: "em-2"}, AuthorityID: "authority-1", Status: models.EmergencyStatusAssigned, RequiredVolunteers: 1},
				{BaseModel: models.BaseModel{ID: "em-3"}, AuthorityID: "authority-1", Status: models.EmergencyStatusCompleted, RequiredVolunteers: 1},
				{BaseModel: models.BaseModel{ID: "em-4"}, AuthorityID: "authority-2", Status: models.EmergencyStatusOpen, RequiredVolunteers: 1},
			},
			[]*models.Assignment{
				{BaseModel: models.BaseModel{ID: "as-1"}, EmergencyID: "em-1", VolunteerID: "vol-1", Status: models.AssignmentStatusRequested},
				{BaseModel: models.BaseModel{ID: "as-2"}, EmergencyID: "em-2", VolunteerID: "vol-2", Status: models.AssignmentStatusAccepted},
			},
			[]*models.VolunteerProfile{
				volunteerProfile("vol-1", "user-1"),
				volunteerProfile("vol-2", "user-2"),
			},
		)

		require.NoError(t, f.svc.BlockUser("authority-1", "admin-1", blockReq, nil))

		assert.Contains(t, f.users.active, "authority-1:false")
		assert.Contains(t, f.emergencies.transitions, "em-1:open->cancelled")
		assert.Contains(t, f.emergencies.transitions, "em-2:assigned->cancelled")

		// Pending requests are withdrawn, accepted volunteers are released
		assert.Equal(t, models.AssignmentStatusCancelled, f.assignments.assignments["as-1"].Status)
		assert.Equal(t, models.AssignmentStatusCancelled, f.assignments.assignments["as-2"].Status)
		assert.Contains(t, f.volunteers.availability, "vol-2:available")

		// Closed and foreign emergencies are untouched
		assert.Equal(t, models.EmergencyStatusCompleted, f.emergencies.emergencies["em-3"].Status)
		assert.Equal(t, models.EmergencyStatusOpen, f.emergencies.emergencies["em-4"].Status)

		assert.Contains(t, f.activity.actions, "emergency_cancelled")
		assert.Contains(t, f.activity.actions, "user_blocked")
	})

	t.Run("admins cannot block themselves", func(t *testing.T) {
		f := newAdminFixture(
			[]*models.User{{BaseModel: models.BaseModel{ID: "admin-1"}, Role: models.UserRoleAdmin}},
			nil, nil, nil,
		)

		err := f.svc.BlockUser("admin-1", "admin-1", blockReq, nil)
		assert.Error(t, err)
		assert.Empty(t, f.users.active)
	})

	t.Run("admins cannot block other admins", func(t *testing.T) {
		f := newAdminFixture(
			[]*models.User{{BaseModel: models.BaseModel{ID: "admin-2"}, Role: models.UserRoleAdmin}},
			nil, nil, nil,
		)

		err := f.svc.BlockUser("admin-2", "admin-1", blockReq, nil)
		assert.Error(t, err)
		assert.Empty(t, f.users.active)
	})
}
