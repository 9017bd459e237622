package services

import (
	"errors"
	"time"

	"crisislink_backend/internal/logger"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AssignmentService interface {
	GetByID(assignmentID, actorID string, role models.UserRole) (*dto.AssignmentResponse, error)
	ListForVolunteer(actorID string, criteria repositories.AssignmentFilter) ([]*dto.AssignmentResponse, int64, error)
	ListForEmergency(emergencyID, actorID string, role models.UserRole) ([]*dto.AssignmentResponse, error)

	// Lifecycle transitions
	Accept(assignmentID, actorID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error)
	Decline(assignmentID, actorID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error)
	Complete(assignmentID, actorID string, role models.UserRole, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error)
	Cancel(assignmentID, actorID string, role models.UserRole, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error)

	// ExpireOverdueRequests cancels requests left unanswered since before
	// cutoff so matching can offer the slots to other volunteers.
	ExpireOverdueRequests(cutoff time.Time) (int, error)
}

type assignmentService struct {
	db            *gorm.DB
	assignRepo    repositories.AssignmentRepository
	emergencyRepo repositories.EmergencyRepository
	volunteerRepo repositories.VolunteerRepository
	activityRepo  repositories.ActivityRepository
	matching      MatchingService
}

func NewAssignmentService(
	db *gorm.DB,
	assignRepo repositories.AssignmentRepository,
	emergencyRepo repositories.EmergencyRepository,
	volunteerRepo repositories.VolunteerRepository,
	activityRepo repositories.ActivityRepository,
	matching MatchingService,
) AssignmentService {
	return &assignmentService{
		db:            db,
		assignRepo:    assignRepo,
		emergencyRepo: emergencyRepo,
		volunteerRepo: volunteerRepo,
		activityRepo:  activityRepo,
		matching:      matching,
	}
}

// -------------------------------
// Reads
// -------------------------------

func (s *assignmentService) GetByID(assignmentID, actorID string, role models.UserRole) (*dto.AssignmentResponse, error) {
	assignment, err := s.assignRepo.FindByID(assignmentID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if err := s.authorizeView(assignment, actorID, role); err != nil {
		return nil, err
	}
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListForVolunteer(actorID string, criteria repositories.AssignmentFilter) ([]*dto.AssignmentResponse, int64, error) {
	profile, err := s.volunteerRepo.FindByUserID(actorID)
	if err != nil {
		return nil, 0, apperrors.ErrNotFound(err)
	}
	criteria.VolunteerID = profile.ID

	assignments, total, err := s.assignRepo.FindWithFilter(criteria)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	responses := make([]*dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		responses = append(responses, dto.NewAssignmentResponse(&assignments[i]))
	}
	return responses, total, nil
}

func (s *assignmentService) ListForEmergency(emergencyID, actorID string, role models.UserRole) ([]*dto.AssignmentResponse, error) {
	emergency, err := s.emergencyRepo.FindByID(emergencyID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if role != models.UserRoleAdmin && emergency.AuthorityID != actorID {
		return nil, apperrors.ErrNotEmergencyOwner
	}

	assignments, err := s.assignRepo.FindByEmergency(emergencyID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		responses = append(responses, dto.NewAssignmentResponse(&assignments[i]))
	}
	return responses, nil
}

// -------------------------------
// Lifecycle transitions
// -------------------------------

func (s *assignmentService) Accept(assignmentID, actorID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
	assignment, err := s.loadOwnAssignment(assignmentID, actorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := assignment.Status
	if err := assignment.Accept(req.Notes, now); err != nil {
		return nil, apperrors.ErrStateConflict("assignment", err.Error())
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		assignRepo := s.assignRepo.WithTx(tx)
		emergencyRepo := s.emergencyRepo.WithTx(tx)
		volunteerRepo := s.volunteerRepo.WithTx(tx)
		activityRepo := s.activityRepo.WithTx(tx)

		if err := assignRepo.SaveTransition(assignment, from); err != nil {
			return err
		}
		if err := volunteerRepo.SetAvailability(assignment.VolunteerID, models.AvailabilityBusy); err != nil {
			return err
		}

		emergency, err := emergencyRepo.FindByID(assignment.EmergencyID)
		if err != nil {
			return err
		}
		accepted, err := assignRepo.CountByEmergencyAndStatus(emergency.ID, models.AssignmentStatusAccepted)
		if err != nil {
			return err
		}

		// Fully staffed: freeze the emergency and withdraw pending requests
		if emergency.VolunteersNeeded(int(accepted)) == 0 && emergency.Status == models.EmergencyStatusOpen {
			if err := emergencyRepo.UpdateStatusFrom(emergency.ID, models.EmergencyStatusOpen, models.EmergencyStatusAssigned); err != nil {
				return err
			}
			if _, err := assignRepo.CancelRequestedForEmergency(emergency.ID, now); err != nil {
				return err
			}
		}

		if err := activityRepo.LogAction(&actorID, repositories.ActionAssignmentAccepted, "assignment", &assignment.ID, map[string]interface{}{
			"emergency_id": assignment.EmergencyID,
		}, meta); err != nil {
			return err
		}
		return activityRepo.LogNotification(emergency.AuthorityID, repositories.NotificationTypeAssignmentUpdate,
			"Assignment accepted",
			"A volunteer accepted the assignment for: "+emergency.Title,
			map[string]interface{}{
				"emergency_id":  emergency.ID,
				"assignment_id": assignment.ID,
			})
	})
	if err != nil {
		return nil, s.transitionError(err)
	}
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Decline(assignmentID, actorID string, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
	assignment, err := s.loadOwnAssignment(assignmentID, actorID)
	if err != nil {
		return nil, err
	}

	from := assignment.Status
	if err := assignment.Decline(req.Notes, time.Now()); err != nil {
		return nil, apperrors.ErrStateConflict("assignment", err.Error())
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.assignRepo.WithTx(tx).SaveTransition(assignment, from); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).LogAction(&actorID, repositories.ActionAssignmentDeclined, "assignment", &assignment.ID, map[string]interface{}{
			"emergency_id": assignment.EmergencyID,
		}, meta)
	})
	if err != nil {
		return nil, s.transitionError(err)
	}

	// A declined slot frees capacity; try to fill it again right away
	s.rematch(assignment.EmergencyID)

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Complete(assignmentID, actorID string, role models.UserRole, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
	assignment, err := s.assignRepo.FindByID(assignmentID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	// The owning volunteer reports completion; the requesting authority or
	// an admin may confirm it on their behalf.
	if err := s.authorizeView(assignment, actorID, role); err != nil {
		return nil, err
	}

	now := time.Now()
	from := assignment.Status
	if err := assignment.Complete(req.Notes, now); err != nil {
		return nil, apperrors.ErrStateConflict("assignment", err.Error())
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		assignRepo := s.assignRepo.WithTx(tx)
		emergencyRepo := s.emergencyRepo.WithTx(tx)

		if err := assignRepo.SaveTransition(assignment, from); err != nil {
			return err
		}
		if err := s.volunteerRepo.WithTx(tx).SetAvailability(assignment.VolunteerID, models.AvailabilityAvailable); err != nil {
			return err
		}

		// Last accepted assignment done means the emergency itself is done
		emergency, err := emergencyRepo.FindByID(assignment.EmergencyID)
		if err != nil {
			return err
		}
		accepted, err := assignRepo.CountByEmergencyAndStatus(emergency.ID, models.AssignmentStatusAccepted)
		if err != nil {
			return err
		}
		if accepted == 0 && !emergency.Status.IsTerminal() {
			if err := emergencyRepo.UpdateStatusFrom(emergency.ID, emergency.Status, models.EmergencyStatusCompleted); err != nil {
				return err
			}
			if _, err := assignRepo.CancelRequestedForEmergency(emergency.ID, now); err != nil {
				return err
			}
		}

		return s.activityRepo.WithTx(tx).LogAction(&actorID, repositories.ActionAssignmentCompleted, "assignment", &assignment.ID, map[string]interface{}{
			"emergency_id": assignment.EmergencyID,
			"volunteer_id": assignment.VolunteerID,
		}, meta)
	})
	if err != nil {
		return nil, s.transitionError(err)
	}
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Cancel(assignmentID, actorID string, role models.UserRole, req *dto.AssignmentActionRequest, meta *models.RequestMeta) (*dto.AssignmentResponse, error) {
	assignment, err := s.assignRepo.FindByID(assignmentID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if err := s.authorizeView(assignment, actorID, role); err != nil {
		return nil, err
	}

	now := time.Now()
	from := assignment.Status
	wasAccepted, err := assignment.Cancel(req.Notes, now)
	if err != nil {
		return nil, apperrors.ErrStateConflict("assignment", err.Error())
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		assignRepo := s.assignRepo.WithTx(tx)
		emergencyRepo := s.emergencyRepo.WithTx(tx)
		volunteerRepo := s.volunteerRepo.WithTx(tx)
		activityRepo := s.activityRepo.WithTx(tx)

		if err := assignRepo.SaveTransition(assignment, from); err != nil {
			return err
		}

		if wasAccepted {
			if err := volunteerRepo.SetAvailability(assignment.VolunteerID, models.AvailabilityAvailable); err != nil {
				return err
			}

			// Losing an accepted volunteer may drop the emergency below its
			// required headcount; reopen it so matching resumes.
			emergency, err := emergencyRepo.FindByID(assignment.EmergencyID)
			if err != nil {
				return err
			}
			accepted, err := assignRepo.CountByEmergencyAndStatus(emergency.ID, models.AssignmentStatusAccepted)
			if err != nil {
				return err
			}
			if emergency.VolunteersNeeded(int(accepted)) > 0 && emergency.Status == models.EmergencyStatusAssigned {
				if err := emergencyRepo.UpdateStatusFrom(emergency.ID, models.EmergencyStatusAssigned, models.EmergencyStatusOpen); err != nil {
					return err
				}
			}
		}

		return activityRepo.LogAction(&actorID, repositories.ActionAssignmentCancelled, "assignment", &assignment.ID, map[string]interface{}{
			"emergency_id": assignment.EmergencyID,
			"was_accepted": wasAccepted,
		}, meta)
	})
	if err != nil {
		return nil, s.transitionError(err)
	}

	if wasAccepted {
		s.rematch(assignment.EmergencyID)
	}
	return dto.NewAssignmentResponse(assignment), nil
}

// -------------------------------
// Maintenance
// -------------------------------

func (s *assignmentService) ExpireOverdueRequests(cutoff time.Time) (int, error) {
	overdue, err := s.assignRepo.FindOverdueRequested(cutoff)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	expired := 0
	rematchIDs := make(map[string]bool)
	for i := range overdue {
		a := &overdue[i]
		if a.Emergency != nil && a.Emergency.Status.IsTerminal() {
			continue
		}

		prior := a.Status
		if _, err := a.Cancel("request expired without a response", time.Now()); err != nil {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.assignRepo.WithTx(tx).SaveTransition(a, prior); err != nil {
				return err
			}
			return s.activityRepo.WithTx(tx).LogAction(nil, repositories.ActionAssignmentCancelled, "assignment", &a.ID, map[string]interface{}{
				"emergency_id": a.EmergencyID,
				"expired":      true,
			}, nil)
		})
		if err != nil {
			logger.Warn("expiring overdue request failed", "assignment_id", a.ID, "error", err)
			continue
		}
		expired++
		rematchIDs[a.EmergencyID] = true
	}

	for emergencyID := range rematchIDs {
		s.rematch(emergencyID)
	}
	return expired, nil
}

// -------------------------------
// Helpers
// -------------------------------

// loadOwnAssignment resolves the actor's volunteer profile and checks the
// assignment belongs to it.
func (s *assignmentService) loadOwnAssignment(assignmentID, actorID string) (*models.Assignment, error) {
	assignment, err := s.assignRepo.FindByID(assignmentID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	profile, err := s.volunteerRepo.FindByUserID(actorID)
	if err != nil {
		return nil, apperrors.ErrNotAssignmentOwner
	}
	if assignment.VolunteerID != profile.ID {
		return nil, apperrors.ErrNotAssignmentOwner
	}
	return assignment, nil
}

func (s *assignmentService) authorizeView(assignment *models.Assignment, actorID string, role models.UserRole) error {
	switch role {
	case models.UserRoleAdmin:
		return nil
	case models.UserRoleAuthority:
		if assignment.Emergency != nil && assignment.Emergency.AuthorityID == actorID {
			return nil
		}
		return apperrors.ErrNotEmergencyOwner
	default:
		profile, err := s.volunteerRepo.FindByUserID(actorID)
		if err != nil || assignment.VolunteerID != profile.ID {
			return apperrors.ErrNotAssignmentOwner
		}
		return nil
	}
}

func (s *assignmentService) transitionError(err error) error {
	if errors.Is(err, repositories.ErrStaleAssignment) {
		return apperrors.ErrConflict(err, "assignment", "Assignment changed concurrently, retry")
	}
	return apperrors.InternalError(err)
}

// rematch refills freed slots outside the caller's transaction; failures are
// logged, not returned, since the triggering action already succeeded.
func (s *assignmentService) rematch(emergencyID string) {
	if s.matching == nil {
		return
	}
	if _, err := s.matching.CreateAssignmentsForMatches(emergencyID); err != nil {
		logger.Warn("re-matching after assignment change failed",
			"emergency_id", emergencyID,
			"error", err)
	}
}
