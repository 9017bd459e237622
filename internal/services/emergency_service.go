package services

import (
	"errors"
	"time"

	"crisislink_backend/internal/config"
	"crisislink_backend/internal/geo"
	"crisislink_backend/internal/logger"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type EmergencyService interface {
	Create(authorityID string, req *dto.CreateEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error)
	GetByID(emergencyID string) (*dto.EmergencyResponse, error)
	List(criteria repositories.EmergencyFilter) ([]*dto.EmergencyResponse, int64, error)
	Update(emergencyID, actorID string, role models.UserRole, req *dto.UpdateEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error)

	// Lifecycle
	Cancel(emergencyID, actorID string, role models.UserRole, req *dto.CancelEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error)
	Complete(emergencyID, actorID string, role models.UserRole, req *dto.CompleteEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error)

	// Escalation and direct assignment
	Escalate(emergencyID, actorID string, role models.UserRole, meta *models.RequestMeta) (*dto.EmergencyResponse, error)
	AssignVolunteer(emergencyID, actorID string, role models.UserRole, req *dto.AssignVolunteerRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error)

	// ProcessTimeouts runs one escalation sweep and returns the IDs of
	// emergencies it escalated.
	ProcessTimeouts() ([]string, error)

	GetStatistics(actorID string, role models.UserRole) (*repositories.EmergencyStats, error)
}

type emergencyService struct {
	db            *gorm.DB
	emergencyRepo repositories.EmergencyRepository
	assignRepo    repositories.AssignmentRepository
	volunteerRepo repositories.VolunteerRepository
	skillRepo     repositories.SkillRepository
	activityRepo  repositories.ActivityRepository
	matching      MatchingService
}

func NewEmergencyService(
	db *gorm.DB,
	emergencyRepo repositories.EmergencyRepository,
	assignRepo repositories.AssignmentRepository,
	volunteerRepo repositories.VolunteerRepository,
	skillRepo repositories.SkillRepository,
	activityRepo repositories.ActivityRepository,
	matching MatchingService,
) EmergencyService {
	return &emergencyService{
		db:            db,
		emergencyRepo: emergencyRepo,
		assignRepo:    assignRepo,
		volunteerRepo: volunteerRepo,
		skillRepo:     skillRepo,
		activityRepo:  activityRepo,
		matching:      matching,
	}
}

// -------------------------------
// CRUD
// -------------------------------

func (s *emergencyService) Create(authorityID string, req *dto.CreateEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error) {
	if err := geo.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, apperrors.ErrInvalidCoordinates
	}

	priority := models.PriorityLevel(req.Priority)
	if !priority.Valid() {
		return nil, apperrors.ValidationError(map[string]string{"priority": "unknown priority level"})
	}

	cfg := config.GetConfig()
	radius := req.SearchRadiusKm
	if radius <= 0 {
		radius = cfg.Matching.DefaultSearchRadiusKm
	}
	if radius > cfg.Matching.MaxSearchRadiusKm {
		radius = cfg.Matching.MaxSearchRadiusKm
	}

	requiredSkills, err := s.buildRequiredSkills(req.RequiredSkills)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	emergency := &models.EmergencyRequest{
		AuthorityID:        authorityID,
		Title:              req.Title,
		Description:        req.Description,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Priority:           priority,
		Status:             models.EmergencyStatusOpen,
		RequiredVolunteers: req.RequiredVolunteers,
		SearchRadiusKm:     radius,
		ExpiresAt:          now.Add(time.Duration(cfg.Matching.EscalationTimeoutMinutes) * time.Minute),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		emergencyRepo := s.emergencyRepo.WithTx(tx)
		if err := emergencyRepo.Create(emergency); err != nil {
			return err
		}
		for i := range requiredSkills {
			requiredSkills[i].EmergencyID = emergency.ID
		}
		if err := emergencyRepo.ReplaceRequiredSkills(emergency.ID, requiredSkills); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).LogAction(&authorityID, repositories.ActionEmergencyCreated, "emergency", &emergency.ID, map[string]interface{}{
			"title":    emergency.Title,
			"priority": emergency.Priority,
		}, meta)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Kick off matching outside the transaction so a matcher failure does
	// not roll back the emergency itself
	if created, err := s.matching.CreateAssignmentsForMatches(emergency.ID); err != nil {
		logger.Warn("initial matching failed", "emergency_id", emergency.ID, "error", err)
	} else {
		logger.Info("initial matching done", "emergency_id", emergency.ID, "assignments", created)
	}

	return s.GetByID(emergency.ID)
}

func (s *emergencyService) GetByID(emergencyID string) (*dto.EmergencyResponse, error) {
	emergency, err := s.emergencyRepo.FindByID(emergencyID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	accepted, err := s.assignRepo.CountByEmergencyAndStatus(emergencyID, models.AssignmentStatusAccepted)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewEmergencyResponse(emergency, int(accepted)), nil
}

func (s *emergencyService) List(criteria repositories.EmergencyFilter) ([]*dto.EmergencyResponse, int64, error) {
	emergencies, total, err := s.emergencyRepo.FindWithFilter(criteria)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	responses := make([]*dto.EmergencyResponse, 0, len(emergencies))
	for i := range emergencies {
		e := &emergencies[i]
		accepted, err := s.assignRepo.CountByEmergencyAndStatus(e.ID, models.AssignmentStatusAccepted)
		if err != nil {
			return nil, 0, apperrors.InternalError(err)
		}
		responses = append(responses, dto.NewEmergencyResponse(e, int(accepted)))
	}
	return responses, total, nil
}

func (s *emergencyService) Update(emergencyID, actorID string, role models.UserRole, req *dto.UpdateEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error) {
	emergency, err := s.loadOwnEmergency(emergencyID, actorID, role)
	if err != nil {
		return nil, err
	}
	if emergency.Status.IsTerminal() {
		return nil, apperrors.ErrStateConflict("emergency", "cannot update a completed or cancelled emergency")
	}

	if req.Title != nil {
		emergency.Title = *req.Title
	}
	if req.Description != nil {
		emergency.Description = *req.Description
	}
	if req.Latitude != nil && req.Longitude != nil {
		if err := geo.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
			return nil, apperrors.ErrInvalidCoordinates
		}
		emergency.Latitude = *req.Latitude
		emergency.Longitude = *req.Longitude
	}
	if req.RequiredVolunteers != nil {
		emergency.RequiredVolunteers = *req.RequiredVolunteers
	}

	var requiredSkills []models.EmergencyRequiredSkill
	if req.RequiredSkills != nil {
		requiredSkills, err = s.buildRequiredSkills(req.RequiredSkills)
		if err != nil {
			return nil, err
		}
		for i := range requiredSkills {
			requiredSkills[i].EmergencyID = emergency.ID
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		emergencyRepo := s.emergencyRepo.WithTx(tx)
		if err := emergencyRepo.Update(emergency); err != nil {
			return err
		}
		if req.RequiredSkills != nil {
			if err := emergencyRepo.ReplaceRequiredSkills(emergency.ID, requiredSkills); err != nil {
				return err
			}
		}
		return s.activityRepo.WithTx(tx).LogAction(&actorID, repositories.ActionEmergencyUpdated, "emergency", &emergency.ID, nil, meta)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.GetByID(emergency.ID)
}

// -------------------------------
// Lifecycle
// -------------------------------

func (s *emergencyService) Cancel(emergencyID, actorID string, role models.UserRole, req *dto.CancelEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error) {
	emergency, err := s.loadOwnEmergency(emergencyID, actorID, role)
	if err != nil {
		return nil, err
	}

	from := emergency.Status
	if err := emergency.MarkCancelled(); err != nil {
		return nil, apperrors.ErrStateConflict("emergency", err.Error())
	}

	err = s.closeOut(emergency, from, actorID, repositories.ActionEmergencyCancelled, map[string]interface{}{
		"reason": req.Reason,
	}, meta)
	if err != nil {
		return nil, err
	}
	return s.GetByID(emergency.ID)
}

func (s *emergencyService) Complete(emergencyID, actorID string, role models.UserRole, req *dto.CompleteEmergencyRequest, meta *models.RequestMeta) (*dto.EmergencyResponse, error) {
	emergency, err := s.loadOwnEmergency(emergencyID, actorID, role)
	if err != nil {
		return nil, err
	}

	from := emergency.Status
	if err := emergency.MarkCompleted(); err != nil {
		return nil, apperrors.ErrStateConflict("emergency", err.Error())
	}

	err = s.closeOut(emergency, from, actorID, repositories.ActionEmergencyCompleted, map[string]interface{}{
		"notes": req.Notes,
	}, meta)
	if err != nil {
		return nil, err
	}
	return s.GetByID(emergency.ID)
}

// closeOut moves the emergency to a terminal state, settles remaining
// assignments and frees busy volunteers. Accepted assignments follow the
// terminal status: completed on completion, cancelled on cancellation.
func (s *emergencyService) closeOut(emergency *models.EmergencyRequest, from models.EmergencyStatus, actorID, action string, details map[string]interface{}, meta *models.RequestMeta) error {
	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		activityRepo := s.activityRepo.WithTx(tx)

		if err := settleEmergencyClosure(
			s.emergencyRepo.WithTx(tx),
			s.assignRepo.WithTx(tx),
			s.volunteerRepo.WithTx(tx),
			activityRepo,
			emergency, from, now,
		); err != nil {
			return err
		}
		return activityRepo.LogAction(&actorID, action, "emergency", &emergency.ID, details, meta)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// settleEmergencyClosure applies a terminal transition inside the caller's
// transaction: the repos passed in must already be scoped to it. It flips the
// status with a compare-and-swap, withdraws pending requests, settles the
// accepted assignments and frees their volunteers.
func settleEmergencyClosure(
	emergencyRepo repositories.EmergencyRepository,
	assignRepo repositories.AssignmentRepository,
	volunteerRepo repositories.VolunteerRepository,
	activityRepo repositories.ActivityRepository,
	emergency *models.EmergencyRequest,
	from models.EmergencyStatus,
	now time.Time,
) error {
	if err := emergencyRepo.UpdateStatusFrom(emergency.ID, from, emergency.Status); err != nil {
		return err
	}
	if _, err := assignRepo.CancelRequestedForEmergency(emergency.ID, now); err != nil {
		return err
	}

	assignments, err := assignRepo.FindByEmergency(emergency.ID)
	if err != nil {
		return err
	}
	for i := range assignments {
		a := &assignments[i]
		if a.Status != models.AssignmentStatusAccepted {
			continue
		}

		prior := a.Status
		if emergency.Status == models.EmergencyStatusCompleted {
			if err := a.Complete("", now); err != nil {
				return err
			}
		} else {
			if _, err := a.Cancel("emergency "+string(emergency.Status), now); err != nil {
				return err
			}
		}
		if err := assignRepo.SaveTransition(a, prior); err != nil {
			return err
		}
		if err := volunteerRepo.SetAvailability(a.VolunteerID, models.AvailabilityAvailable); err != nil {
			return err
		}
		if a.Volunteer != nil {
			if err := activityRepo.LogNotification(a.Volunteer.UserID, repositories.NotificationTypeAssignmentUpdate,
				"Emergency "+string(emergency.Status),
				"The emergency has been "+string(emergency.Status)+": "+emergency.Title,
				map[string]interface{}{
					"emergency_id":  emergency.ID,
					"assignment_id": a.ID,
				}); err != nil {
				return err
			}
		}
	}
	return nil
}

// -------------------------------
// Escalation
// -------------------------------

// Escalate is the manual variant: authorities can keep escalating past the
// automatic cap.
func (s *emergencyService) Escalate(emergencyID, actorID string, role models.UserRole, meta *models.RequestMeta) (*dto.EmergencyResponse, error) {
	emergency, err := s.loadOwnEmergency(emergencyID, actorID, role)
	if err != nil {
		return nil, err
	}
	if emergency.Status.IsTerminal() {
		return nil, apperrors.ErrStateConflict("emergency", "cannot escalate a completed or cancelled emergency")
	}

	if err := s.escalate(emergency, &actorID, repositories.ActionEmergencyEscalated, meta); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.GetByID(emergency.ID)
}

// escalate applies and persists one escalation step inside its own
// transaction, then widens the candidate pool.
func (s *emergencyService) escalate(emergency *models.EmergencyRequest, actorID *string, action string, meta *models.RequestMeta) error {
	cfg := config.GetConfig()
	before := map[string]interface{}{
		"priority":         emergency.Priority,
		"search_radius_km": emergency.SearchRadiusKm,
	}
	emergency.Escalate(cfg.Matching.MaxSearchRadiusKm, time.Duration(cfg.Matching.EscalationTimeoutMinutes)*time.Minute, time.Now())

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.emergencyRepo.WithTx(tx).Update(emergency); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).LogAction(actorID, action, "emergency", &emergency.ID, map[string]interface{}{
			"before":           before,
			"priority":         emergency.Priority,
			"search_radius_km": emergency.SearchRadiusKm,
			"escalation_count": emergency.EscalationCount,
		}, meta)
	})
	if err != nil {
		return err
	}

	if _, err := s.matching.CreateAssignmentsForMatches(emergency.ID); err != nil {
		logger.Warn("matching after escalation failed", "emergency_id", emergency.ID, "error", err)
	}
	return nil
}

// ProcessTimeouts escalates every emergency past its deadline that still
// needs volunteers. Each emergency runs in its own transaction so one
// failure does not poison the rest of the sweep.
func (s *emergencyService) ProcessTimeouts() ([]string, error) {
	cfg := config.GetConfig()
	now := time.Now()

	candidates, err := s.emergencyRepo.FindExpiredForEscalation(now, cfg.Matching.MaxAutoEscalations)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	var escalated []string
	for i := range candidates {
		emergency := &candidates[i]

		accepted, err := s.assignRepo.CountByEmergencyAndStatus(emergency.ID, models.AssignmentStatusAccepted)
		if err != nil {
			logger.Error("escalation sweep: counting accepted assignments failed",
				"emergency_id", emergency.ID, "error", err)
			continue
		}
		if emergency.VolunteersNeeded(int(accepted)) == 0 {
			// Fully staffed, just push the deadline out
			emergency.ExpiresAt = now.Add(time.Duration(cfg.Matching.EscalationTimeoutMinutes) * time.Minute)
			if err := s.emergencyRepo.Update(emergency); err != nil {
				logger.Error("escalation sweep: deadline refresh failed",
					"emergency_id", emergency.ID, "error", err)
			}
			continue
		}

		if err := s.escalate(emergency, nil, repositories.ActionAutomaticEscalation, nil); err != nil {
			logger.Error("escalation sweep: escalation failed",
				"emergency_id", emergency.ID, "error", err)
			continue
		}
		escalated = append(escalated, emergency.ID)
	}
	return escalated, nil
}

// -------------------------------
// Direct assignment
// -------------------------------

// AssignVolunteer lets an authority request a specific volunteer instead of
// relying on the ranked matching.
func (s *emergencyService) AssignVolunteer(emergencyID, actorID string, role models.UserRole, req *dto.AssignVolunteerRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
	emergency, err := s.loadOwnEmergency(emergencyID, actorID, role)
	if err != nil {
		return nil, err
	}
	if emergency.Status != models.EmergencyStatusOpen && emergency.Status != models.EmergencyStatusAssigned {
		return nil, apperrors.ErrEmergencyNotOpen
	}

	volunteer, err := s.volunteerRepo.FindByID(req.VolunteerID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	assignment := &models.Assignment{
		EmergencyID: emergency.ID,
		VolunteerID: volunteer.ID,
		Status:      models.AssignmentStatusRequested,
		AssignedAt:  time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.assignRepo.WithTx(tx).Create(assignment); err != nil {
			return err
		}
		activityRepo := s.activityRepo.WithTx(tx)
		if err := activityRepo.LogAction(&actorID, repositories.ActionAssignmentCreated, "assignment", &assignment.ID, map[string]interface{}{
			"emergency_id": emergency.ID,
			"volunteer_id": volunteer.ID,
			"direct":       true,
		}, meta); err != nil {
			return err
		}
		return activityRepo.LogNotification(volunteer.UserID, repositories.NotificationTypeAssignmentRequest,
			"New assignment request",
			"You have been requested for the emergency: "+emergency.Title,
			map[string]interface{}{
				"emergency_id":  emergency.ID,
				"assignment_id": assignment.ID,
				"priority":      emergency.Priority,
			})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrAssignmentExists) {
			return nil, apperrors.ErrAssignmentAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}
	return dto.NewAssignmentResponse(assignment), nil
}

// -------------------------------
// Stats
// -------------------------------

func (s *emergencyService) GetStatistics(actorID string, role models.UserRole) (*repositories.EmergencyStats, error) {
	authorityID := ""
	if role == models.UserRoleAuthority {
		authorityID = actorID
	}
	stats, err := s.emergencyRepo.GetStatistics(authorityID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}

// -------------------------------
// Helpers
// -------------------------------

func (s *emergencyService) loadOwnEmergency(emergencyID, actorID string, role models.UserRole) (*models.EmergencyRequest, error) {
	emergency, err := s.emergencyRepo.FindByID(emergencyID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if role != models.UserRoleAdmin && emergency.AuthorityID != actorID {
		return nil, apperrors.ErrNotEmergencyOwner
	}
	return emergency, nil
}

// buildRequiredSkills validates that every referenced skill exists in the
// catalog and rejects duplicates.
func (s *emergencyService) buildRequiredSkills(inputs []dto.RequiredSkillInput) ([]models.EmergencyRequiredSkill, error) {
	seen := make(map[string]bool, len(inputs))
	skills := make([]models.EmergencyRequiredSkill, 0, len(inputs))
	for _, input := range inputs {
		if seen[input.SkillID] {
			return nil, apperrors.ValidationError(map[string]string{"required_skills": "duplicate skill: " + input.SkillID})
		}
		seen[input.SkillID] = true

		if _, err := s.skillRepo.FindSkillByID(input.SkillID); err != nil {
			return nil, apperrors.ErrNotFound(err)
		}
		skills = append(skills, models.EmergencyRequiredSkill{
			SkillID:     input.SkillID,
			IsMandatory: input.IsMandatory,
		})
	}
	return skills, nil
}
