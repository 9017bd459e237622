package services

import (
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/storage"

	"gorm.io/gorm"
)

// Container wires repositories and services once at startup.
type Container struct {
	Auth       AuthService
	User       UserService
	Volunteer  VolunteerService
	Emergency  EmergencyService
	Assignment AssignmentService
	Matching   MatchingService
	Activity   ActivityService
	Admin      AdminService
}

func NewContainer(db *gorm.DB, files storage.Storage) *Container {
	userRepo := repositories.NewUserRepository(db)
	volunteerRepo := repositories.NewVolunteerRepository(db)
	skillRepo := repositories.NewSkillRepository(db)
	emergencyRepo := repositories.NewEmergencyRepository(db)
	assignRepo := repositories.NewAssignmentRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	matching := NewMatchingService(db, volunteerRepo, emergencyRepo, assignRepo, activityRepo)

	return &Container{
		Auth:       NewAuthService(db, userRepo, activityRepo),
		User:       NewUserService(userRepo),
		Volunteer:  NewVolunteerService(db, volunteerRepo, skillRepo, activityRepo, files),
		Emergency:  NewEmergencyService(db, emergencyRepo, assignRepo, volunteerRepo, skillRepo, activityRepo, matching),
		Assignment: NewAssignmentService(db, assignRepo, emergencyRepo, volunteerRepo, activityRepo, matching),
		Matching:   matching,
		Activity:   NewActivityService(activityRepo),
		Admin:      NewAdminService(db, userRepo, volunteerRepo, skillRepo, emergencyRepo, assignRepo, activityRepo),
	}
}
