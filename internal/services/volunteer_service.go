package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"crisislink_backend/internal/geo"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/services/dto"
	"crisislink_backend/internal/storage"
	"crisislink_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VolunteerService interface {
	GetProfile(userID string) (*dto.VolunteerProfileResponse, error)
	UpsertProfile(userID string, req *dto.UpsertVolunteerProfileRequest, meta *models.RequestMeta) (*dto.VolunteerProfileResponse, error)
	SetAvailability(userID string, req *dto.SetAvailabilityRequest) (*dto.VolunteerProfileResponse, error)

	// Skills
	ListCatalog(category string) ([]models.Skill, error)
	ClaimSkill(userID string, req *dto.ClaimSkillRequest, meta *models.RequestMeta) (*dto.VolunteerSkillResponse, error)
	UploadSkillDocument(ctx context.Context, userID, volunteerSkillID, filename string, file io.Reader, contentType string) (*dto.VolunteerSkillResponse, error)
	ListSkills(userID string) ([]dto.VolunteerSkillResponse, error)
}

type volunteerService struct {
	db            *gorm.DB
	volunteerRepo repositories.VolunteerRepository
	skillRepo     repositories.SkillRepository
	activityRepo  repositories.ActivityRepository
	files         storage.Storage
}

func NewVolunteerService(
	db *gorm.DB,
	volunteerRepo repositories.VolunteerRepository,
	skillRepo repositories.SkillRepository,
	activityRepo repositories.ActivityRepository,
	files storage.Storage,
) VolunteerService {
	return &volunteerService{
		db:            db,
		volunteerRepo: volunteerRepo,
		skillRepo:     skillRepo,
		activityRepo:  activityRepo,
		files:         files,
	}
}

// -------------------------------
// Profile
// -------------------------------

func (s *volunteerService) GetProfile(userID string) (*dto.VolunteerProfileResponse, error) {
	profile, err := s.volunteerRepo.FindByUserID(userID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	return dto.NewVolunteerProfileResponse(profile), nil
}

// UpsertProfile creates the profile on first use and updates it afterwards.
func (s *volunteerService) UpsertProfile(userID string, req *dto.UpsertVolunteerProfileRequest, meta *models.RequestMeta) (*dto.VolunteerProfileResponse, error) {
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, apperrors.ValidationError(map[string]string{"location": "latitude and longitude must be set together"})
	}
	if req.Latitude != nil {
		if err := geo.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
			return nil, apperrors.ErrInvalidCoordinates
		}
	}

	profile, err := s.volunteerRepo.FindByUserID(userID)
	switch err {
	case nil:
		if req.Latitude != nil {
			profile.Latitude = req.Latitude
			profile.Longitude = req.Longitude
		}
		if req.Bio != "" {
			profile.Bio = req.Bio
		}
		if err := s.volunteerRepo.Update(profile); err != nil {
			return nil, apperrors.InternalError(err)
		}
	case repositories.ErrVolunteerNotFound:
		profile = &models.VolunteerProfile{
			UserID:             userID,
			Latitude:           req.Latitude,
			Longitude:          req.Longitude,
			AvailabilityStatus: models.AvailabilityOffline,
			Bio:                req.Bio,
		}
		if err := s.volunteerRepo.Create(profile); err != nil {
			return nil, apperrors.InternalError(err)
		}
	default:
		return nil, apperrors.InternalError(err)
	}

	return s.GetProfile(userID)
}

func (s *volunteerService) SetAvailability(userID string, req *dto.SetAvailabilityRequest) (*dto.VolunteerProfileResponse, error) {
	profile, err := s.volunteerRepo.FindByUserID(userID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	status := models.AvailabilityStatus(req.Status)
	if status == models.AvailabilityAvailable && !profile.HasCoordinates() {
		return nil, apperrors.ErrNoCoordinates
	}

	if err := s.volunteerRepo.SetAvailability(profile.ID, status); err != nil {
		return nil, apperrors.InternalError(err)
	}
	profile.AvailabilityStatus = status
	return dto.NewVolunteerProfileResponse(profile), nil
}

// -------------------------------
// Skills
// -------------------------------

func (s *volunteerService) ListCatalog(category string) ([]models.Skill, error) {
	if category != "" {
		skills, err := s.skillRepo.FindSkillsByCategory(models.SkillCategory(category))
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		return skills, nil
	}
	skills, err := s.skillRepo.FindAllSkills()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return skills, nil
}

func (s *volunteerService) ClaimSkill(userID string, req *dto.ClaimSkillRequest, meta *models.RequestMeta) (*dto.VolunteerSkillResponse, error) {
	profile, err := s.volunteerRepo.FindByUserID(userID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	skill, err := s.skillRepo.FindSkillByID(req.SkillID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	claim := &models.VolunteerSkill{
		VolunteerID:        profile.ID,
		SkillID:            skill.ID,
		VerificationStatus: models.VerificationPending,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.skillRepo.WithTx(tx).ClaimSkill(claim); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).LogAction(&userID, repositories.ActionSkillClaimed, "volunteer_skill", &claim.ID, map[string]interface{}{
			"skill_id":   skill.ID,
			"skill_name": skill.Name,
		}, meta)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrSkillAlreadyClaimed) {
			return nil, apperrors.ErrSkillAlreadyClaimed
		}
		return nil, apperrors.InternalError(err)
	}

	claim.Skill = skill
	resp := dto.NewVolunteerSkillResponse(claim)
	return &resp, nil
}

// UploadSkillDocument stores supporting evidence for a pending claim. The
// stored path goes on the claim so reviewers can pull the file back up.
func (s *volunteerService) UploadSkillDocument(ctx context.Context, userID, volunteerSkillID, filename string, file io.Reader, contentType string) (*dto.VolunteerSkillResponse, error) {
	profile, err := s.volunteerRepo.FindByUserID(userID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	claim, err := s.skillRepo.FindVolunteerSkill(volunteerSkillID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if claim.VolunteerID != profile.ID {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if claim.VerificationStatus != models.VerificationPending {
		return nil, apperrors.ErrSkillNotPending
	}

	path := fmt.Sprintf("skill-documents/%s/%s%s", claim.ID, uuid.NewString(), filepath.Ext(filename))
	if err := s.files.Save(ctx, path, file, contentType); err != nil {
		return nil, apperrors.InternalError(err)
	}

	claim.DocumentsPath = path
	if err := s.db.Model(&models.VolunteerSkill{}).
		Where("id = ?", claim.ID).
		Update("documents_path", path).Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := dto.NewVolunteerSkillResponse(claim)
	return &resp, nil
}

func (s *volunteerService) ListSkills(userID string) ([]dto.VolunteerSkillResponse, error) {
	profile, err := s.volunteerRepo.FindByUserID(userID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	claims, err := s.skillRepo.FindVolunteerSkills(profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]dto.VolunteerSkillResponse, 0, len(claims))
	for i := range claims {
		responses = append(responses, dto.NewVolunteerSkillResponse(&claims[i]))
	}
	return responses, nil
}
