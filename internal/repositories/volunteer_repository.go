package repositories

import (
	"errors"

	"crisislink_backend/internal/geo"
	"crisislink_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrVolunteerNotFound      = errors.New("volunteer profile not found")
	ErrVolunteerAlreadyExists = errors.New("volunteer profile already exists")
)

type VolunteerRepository interface {
	WithTx(tx *gorm.DB) VolunteerRepository

	Create(profile *models.VolunteerProfile) error
	FindByID(id string) (*models.VolunteerProfile, error)
	FindByUserID(userID string) (*models.VolunteerProfile, error)
	Update(profile *models.VolunteerProfile) error
	SetAvailability(id string, status models.AvailabilityStatus) error

	// FindCandidatesInBox returns available volunteers with coordinates
	// inside the bounding box. When skillIDs is non-empty, only volunteers
	// holding at least one verified skill from the set are returned.
	// Callers must re-filter by exact distance.
	FindCandidatesInBox(box geo.BoundingBox, skillIDs []string) ([]models.VolunteerProfile, error)

	// Stats
	CountByAvailability(status models.AvailabilityStatus) (int64, error)
	CountMatchable() (int64, error)
}

type VolunteerRepositoryImpl struct {
	db *gorm.DB
}

func NewVolunteerRepository(db *gorm.DB) VolunteerRepository {
	return &VolunteerRepositoryImpl{db: db}
}

func (r *VolunteerRepositoryImpl) WithTx(tx *gorm.DB) VolunteerRepository {
	return &VolunteerRepositoryImpl{db: tx}
}

func (r *VolunteerRepositoryImpl) Create(profile *models.VolunteerProfile) error {
	err := r.db.Create(profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrVolunteerAlreadyExists
		}
		return err
	}
	return nil
}

func (r *VolunteerRepositoryImpl) FindByID(id string) (*models.VolunteerProfile, error) {
	var profile models.VolunteerProfile
	err := r.db.Preload("User").Preload("Skills.Skill").First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolunteerNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *VolunteerRepositoryImpl) FindByUserID(userID string) (*models.VolunteerProfile, error) {
	var profile models.VolunteerProfile
	err := r.db.Preload("User").Preload("Skills.Skill").First(&profile, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolunteerNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *VolunteerRepositoryImpl) Update(profile *models.VolunteerProfile) error {
	return r.db.Save(profile).Error
}

func (r *VolunteerRepositoryImpl) SetAvailability(id string, status models.AvailabilityStatus) error {
	result := r.db.Model(&models.VolunteerProfile{}).Where("id = ?", id).Update("availability_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVolunteerNotFound
	}
	return nil
}

func (r *VolunteerRepositoryImpl) FindCandidatesInBox(box geo.BoundingBox, skillIDs []string) ([]models.VolunteerProfile, error) {
	query := r.db.Model(&models.VolunteerProfile{}).
		Preload("User").
		Preload("Skills", "verification_status = ?", models.VerificationVerified).
		Preload("Skills.Skill").
		Where("availability_status = ?", models.AvailabilityAvailable).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon)

	if len(skillIDs) > 0 {
		query = query.Where(
			"id IN (SELECT volunteer_id FROM volunteer_skills WHERE skill_id IN ? AND verification_status = ?)",
			skillIDs, models.VerificationVerified,
		)
	}

	var candidates []models.VolunteerProfile
	err := query.Find(&candidates).Error
	return candidates, err
}

// Stats

func (r *VolunteerRepositoryImpl) CountByAvailability(status models.AvailabilityStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.VolunteerProfile{}).Where("availability_status = ?", status).Count(&count).Error
	return count, err
}

func (r *VolunteerRepositoryImpl) CountMatchable() (int64, error) {
	var count int64
	err := r.db.Model(&models.VolunteerProfile{}).
		Where("availability_status = ?", models.AvailabilityAvailable).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Count(&count).Error
	return count, err
}
