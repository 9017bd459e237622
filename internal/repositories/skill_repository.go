package repositories

import (
	"errors"
	"time"

	"crisislink_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrSkillNotFound          = errors.New("skill not found")
	ErrSkillAlreadyExists     = errors.New("skill already exists")
	ErrVolunteerSkillNotFound = errors.New("volunteer skill not found")
	ErrSkillAlreadyClaimed    = errors.New("skill already claimed by volunteer")
)

type SkillRepository interface {
	WithTx(tx *gorm.DB) SkillRepository

	// Skill catalog
	CreateSkill(skill *models.Skill) error
	FindSkillByID(id string) (*models.Skill, error)
	FindSkillsByIDs(ids []string) ([]models.Skill, error)
	FindAllSkills() ([]models.Skill, error)
	FindSkillsByCategory(category models.SkillCategory) ([]models.Skill, error)

	// Volunteer skill claims
	ClaimSkill(vs *models.VolunteerSkill) error
	FindVolunteerSkill(id string) (*models.VolunteerSkill, error)
	FindVolunteerSkills(volunteerID string) ([]models.VolunteerSkill, error)
	FindPendingVerifications(page, pageSize int) ([]models.VolunteerSkill, int64, error)
	SetVerification(id string, status models.VerificationStatus, verifiedBy string, verifiedAt time.Time) error

	// Stats
	CountVerifiedByVolunteer(volunteerID string) (int64, error)
}

type SkillRepositoryImpl struct {
	db *gorm.DB
}

func NewSkillRepository(db *gorm.DB) SkillRepository {
	return &SkillRepositoryImpl{db: db}
}

func (r *SkillRepositoryImpl) WithTx(tx *gorm.DB) SkillRepository {
	return &SkillRepositoryImpl{db: tx}
}

// Skill catalog

func (r *SkillRepositoryImpl) CreateSkill(skill *models.Skill) error {
	err := r.db.Create(skill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSkillAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SkillRepositoryImpl) FindSkillByID(id string) (*models.Skill, error) {
	var skill models.Skill
	err := r.db.First(&skill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSkillNotFound
		}
		return nil, err
	}
	return &skill, nil
}

func (r *SkillRepositoryImpl) FindSkillsByIDs(ids []string) ([]models.Skill, error) {
	var skills []models.Skill
	if len(ids) == 0 {
		return skills, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&skills).Error
	return skills, err
}

func (r *SkillRepositoryImpl) FindAllSkills() ([]models.Skill, error) {
	var skills []models.Skill
	err := r.db.Order("category, name").Find(&skills).Error
	return skills, err
}

func (r *SkillRepositoryImpl) FindSkillsByCategory(category models.SkillCategory) ([]models.Skill, error) {
	var skills []models.Skill
	err := r.db.Where("category = ?", category).Order("name").Find(&skills).Error
	return skills, err
}

// Volunteer skill claims

func (r *SkillRepositoryImpl) ClaimSkill(vs *models.VolunteerSkill) error {
	err := r.db.Create(vs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSkillAlreadyClaimed
		}
		return err
	}
	return nil
}

func (r *SkillRepositoryImpl) FindVolunteerSkill(id string) (*models.VolunteerSkill, error) {
	var vs models.VolunteerSkill
	err := r.db.Preload("Skill").First(&vs, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolunteerSkillNotFound
		}
		return nil, err
	}
	return &vs, nil
}

func (r *SkillRepositoryImpl) FindVolunteerSkills(volunteerID string) ([]models.VolunteerSkill, error) {
	var skills []models.VolunteerSkill
	err := r.db.Preload("Skill").Where("volunteer_id = ?", volunteerID).Find(&skills).Error
	return skills, err
}

func (r *SkillRepositoryImpl) FindPendingVerifications(page, pageSize int) ([]models.VolunteerSkill, int64, error) {
	query := r.db.Model(&models.VolunteerSkill{}).Where("verification_status = ?", models.VerificationPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var pending []models.VolunteerSkill
	err := query.Preload("Skill").
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&pending).Error
	return pending, total, err
}

func (r *SkillRepositoryImpl) SetVerification(id string, status models.VerificationStatus, verifiedBy string, verifiedAt time.Time) error {
	result := r.db.Model(&models.VolunteerSkill{}).
		Where("id = ? AND verification_status = ?", id, models.VerificationPending).
		Updates(map[string]interface{}{
			"verification_status": status,
			"verified_by":         verifiedBy,
			"verified_at":         verifiedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVolunteerSkillNotFound
	}
	return nil
}

// Stats

func (r *SkillRepositoryImpl) CountVerifiedByVolunteer(volunteerID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.VolunteerSkill{}).
		Where("volunteer_id = ? AND verification_status = ?", volunteerID, models.VerificationVerified).
		Count(&count).Error
	return count, err
}
