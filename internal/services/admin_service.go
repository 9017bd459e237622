package services

import (
	"errors"
	"time"

	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AdminService interface {
	// Skill verification queue
	ListPendingVerifications(page, pageSize int) ([]*dto.PendingVerificationResponse, int64, error)
	VerifySkill(volunteerSkillID, adminID string, req *dto.VerifySkillRequest, meta *models.RequestMeta) (*dto.VolunteerSkillResponse, error)

	// User moderation
	BlockUser(userID, adminID string, req *dto.BlockUserRequest, meta *models.RequestMeta) error
	UnblockUser(userID, adminID string, meta *models.RequestMeta) error

	GetPlatformOverview() (*dto.PlatformOverview, error)
}

type adminService struct {
	db            *gorm.DB
	userRepo      repositories.UserRepository
	volunteerRepo repositories.VolunteerRepository
	skillRepo     repositories.SkillRepository
	emergencyRepo repositories.EmergencyRepository
	assignRepo    repositories.AssignmentRepository
	activityRepo  repositories.ActivityRepository
}

func NewAdminService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	volunteerRepo repositories.VolunteerRepository,
	skillRepo repositories.SkillRepository,
	emergencyRepo repositories.EmergencyRepository,
	assignRepo repositories.AssignmentRepository,
	activityRepo repositories.ActivityRepository,
) AdminService {
	return &adminService{
		db:            db,
		userRepo:      userRepo,
		volunteerRepo: volunteerRepo,
		skillRepo:     skillRepo,
		emergencyRepo: emergencyRepo,
		assignRepo:    assignRepo,
		activityRepo:  activityRepo,
	}
}

// -------------------------------
// Skill verification
// -------------------------------

func (s *adminService) ListPendingVerifications(page, pageSize int) ([]*dto.PendingVerificationResponse, int64, error) {
	pending, total, err := s.skillRepo.FindPendingVerifications(page, pageSize)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	responses := make([]*dto.PendingVerificationResponse, 0, len(pending))
	for i := range pending {
		responses = append(responses, dto.NewPendingVerificationResponse(&pending[i]))
	}
	return responses, total, nil
}

func (s *adminService) VerifySkill(volunteerSkillID, adminID string, req *dto.VerifySkillRequest, meta *models.RequestMeta) (*dto.VolunteerSkillResponse, error) {
	claim, err := s.skillRepo.FindVolunteerSkill(volunteerSkillID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if claim.VerificationStatus != models.VerificationPending {
		return nil, apperrors.ErrSkillNotPending
	}

	status := models.VerificationVerified
	action := repositories.ActionSkillVerified
	if !req.Approve {
		status = models.VerificationRejected
		action = repositories.ActionSkillRejected
	}
	now := time.Now()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		skillRepo := s.skillRepo.WithTx(tx)
		activityRepo := s.activityRepo.WithTx(tx)

		if err := skillRepo.SetVerification(claim.ID, status, adminID, now); err != nil {
			return err
		}
		if err := activityRepo.LogAction(&adminID, action, "volunteer_skill", &claim.ID, map[string]interface{}{
			"volunteer_id": claim.VolunteerID,
			"skill_id":     claim.SkillID,
			"reason":       req.Reason,
		}, meta); err != nil {
			return err
		}

		profile, err := s.volunteerRepo.WithTx(tx).FindByID(claim.VolunteerID)
		if err != nil {
			return err
		}
		title := "Skill verified"
		message := "Your skill claim has been verified."
		if !req.Approve {
			title = "Skill claim rejected"
			message = "Your skill claim was rejected."
			if req.Reason != "" {
				message += " Reason: " + req.Reason
			}
		}
		return activityRepo.LogNotification(profile.UserID, repositories.NotificationTypeSkillVerification,
			title, message, map[string]interface{}{
				"volunteer_skill_id": claim.ID,
				"skill_id":           claim.SkillID,
			})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVolunteerSkillNotFound) {
			return nil, apperrors.ErrSkillNotPending
		}
		return nil, apperrors.InternalError(err)
	}

	claim.VerificationStatus = status
	claim.VerifiedBy = &adminID
	claim.VerifiedAt = &now
	resp := dto.NewVolunteerSkillResponse(claim)
	return &resp, nil
}

// -------------------------------
// User moderation
// -------------------------------

// BlockUser deactivates the account and kills its sessions. A blocked
// volunteer is withdrawn from matching and from any live assignments; a
// blocked authority has its open emergencies cancelled so volunteers stop
// being pulled toward a dead account.
func (s *adminService) BlockUser(userID, adminID string, req *dto.BlockUserRequest, meta *models.RequestMeta) error {
	if userID == adminID {
		return apperrors.ErrCannotModifySelf
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}
	if user.Role == models.UserRoleAdmin {
		return apperrors.ErrInsufficientPermissions
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		if err := userRepo.SetActive(userID, false); err != nil {
			return err
		}
		if err := userRepo.RevokeUserRefreshTokens(userID); err != nil {
			return err
		}

		if user.Role == models.UserRoleVolunteer && user.VolunteerProfile != nil {
			volunteerRepo := s.volunteerRepo.WithTx(tx)
			assignRepo := s.assignRepo.WithTx(tx)
			emergencyRepo := s.emergencyRepo.WithTx(tx)

			if err := volunteerRepo.SetAvailability(user.VolunteerProfile.ID, models.AvailabilityOffline); err != nil {
				return err
			}

			active, err := assignRepo.FindActiveByVolunteer(user.VolunteerProfile.ID)
			if err != nil {
				return err
			}
			for i := range active {
				a := &active[i]
				prior := a.Status
				wasAccepted, err := a.Cancel("volunteer account blocked", now)
				if err != nil {
					return err
				}
				if err := assignRepo.SaveTransition(a, prior); err != nil {
					return err
				}
				if wasAccepted && a.Emergency != nil && a.Emergency.Status == models.EmergencyStatusAssigned {
					accepted, err := assignRepo.CountByEmergencyAndStatus(a.EmergencyID, models.AssignmentStatusAccepted)
					if err != nil {
						return err
					}
					if a.Emergency.VolunteersNeeded(int(accepted)) > 0 {
						if err := emergencyRepo.UpdateStatusFrom(a.EmergencyID, models.EmergencyStatusAssigned, models.EmergencyStatusOpen); err != nil {
							return err
						}
					}
				}
			}
		}

		if user.Role == models.UserRoleAuthority {
			emergencyRepo := s.emergencyRepo.WithTx(tx)
			assignRepo := s.assignRepo.WithTx(tx)
			volunteerRepo := s.volunteerRepo.WithTx(tx)
			activityRepo := s.activityRepo.WithTx(tx)

			active, err := emergencyRepo.FindActiveByAuthority(userID)
			if err != nil {
				return err
			}
			for i := range active {
				e := &active[i]
				from := e.Status
				if err := e.MarkCancelled(); err != nil {
					return err
				}
				if err := settleEmergencyClosure(emergencyRepo, assignRepo, volunteerRepo, activityRepo, e, from, now); err != nil {
					return err
				}
				if err := activityRepo.LogAction(&adminID, repositories.ActionEmergencyCancelled, "emergency", &e.ID, map[string]interface{}{
					"reason": "authority account blocked",
				}, meta); err != nil {
					return err
				}
			}
		}

		return s.activityRepo.WithTx(tx).LogAction(&adminID, repositories.ActionUserBlocked, "user", &userID, map[string]interface{}{
			"reason": req.Reason,
		}, meta)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *adminService) UnblockUser(userID, adminID string, meta *models.RequestMeta) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return apperrors.ErrNotFound(err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).SetActive(userID, true); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).LogAction(&adminID, repositories.ActionUserUnblocked, "user", &userID, nil, meta)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// -------------------------------
// Overview
// -------------------------------

func (s *adminService) GetPlatformOverview() (*dto.PlatformOverview, error) {
	overview := &dto.PlatformOverview{}

	var err error
	if overview.TotalVolunteers, err = s.userRepo.CountByRole(models.UserRoleVolunteer); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if overview.TotalAuthorities, err = s.userRepo.CountByRole(models.UserRoleAuthority); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if overview.AvailableVolunteers, err = s.volunteerRepo.CountByAvailability(models.AvailabilityAvailable); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if overview.OpenEmergencies, err = s.emergencyRepo.CountByStatus(models.EmergencyStatusOpen); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if overview.AssignedEmergencies, err = s.emergencyRepo.CountByStatus(models.EmergencyStatusAssigned); err != nil {
		return nil, apperrors.InternalError(err)
	}

	_, pendingTotal, err := s.skillRepo.FindPendingVerifications(1, 1)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	overview.PendingVerifications = pendingTotal

	return overview, nil
}
