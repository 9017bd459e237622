package repositories

import (
	"errors"
	"time"

	"crisislink_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentExists   = errors.New("assignment already exists for this emergency and volunteer")
	ErrStaleAssignment    = errors.New("assignment status changed concurrently")
)

type AssignmentRepository interface {
	WithTx(tx *gorm.DB) AssignmentRepository

	Create(assignment *models.Assignment) error
	FindByID(id string) (*models.Assignment, error)
	Exists(emergencyID, volunteerID string) (bool, error)
	FindWithFilter(criteria AssignmentFilter) ([]models.Assignment, int64, error)
	FindByEmergency(emergencyID string) ([]models.Assignment, error)

	// SaveTransition persists a status transition with a compare-and-swap
	// on the prior status. ErrStaleAssignment means another transaction
	// moved the row first.
	SaveTransition(assignment *models.Assignment, from models.AssignmentStatus) error

	CountByEmergencyAndStatus(emergencyID string, status models.AssignmentStatus) (int64, error)
	CancelRequestedForEmergency(emergencyID string, now time.Time) (int64, error)
	FindOverdueRequested(cutoff time.Time) ([]models.Assignment, error)
	FindActiveByVolunteer(volunteerID string) ([]models.Assignment, error)
}

type AssignmentRepositoryImpl struct {
	db *gorm.DB
}

type AssignmentFilter struct {
	VolunteerID string                  `form:"-"`
	EmergencyID string                  `form:"emergency_id"`
	Status      models.AssignmentStatus `form:"status"`
	Page        int                     `form:"page"`
	PageSize    int                     `form:"page_size"`
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &AssignmentRepositoryImpl{db: db}
}

func (r *AssignmentRepositoryImpl) WithTx(tx *gorm.DB) AssignmentRepository {
	return &AssignmentRepositoryImpl{db: tx}
}

func (r *AssignmentRepositoryImpl) Create(assignment *models.Assignment) error {
	err := r.db.Create(assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAssignmentExists
		}
		return err
	}
	return nil
}

func (r *AssignmentRepositoryImpl) FindByID(id string) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.Preload("Emergency").Preload("Volunteer").First(&assignment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepositoryImpl) Exists(emergencyID, volunteerID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Assignment{}).
		Where("emergency_id = ? AND volunteer_id = ?", emergencyID, volunteerID).
		Count(&count).Error
	return count > 0, err
}

func (r *AssignmentRepositoryImpl) FindWithFilter(criteria AssignmentFilter) ([]models.Assignment, int64, error) {
	query := r.db.Model(&models.Assignment{})

	if criteria.VolunteerID != "" {
		query = query.Where("volunteer_id = ?", criteria.VolunteerID)
	}
	if criteria.EmergencyID != "" {
		query = query.Where("emergency_id = ?", criteria.EmergencyID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := criteria.Page
	if page <= 0 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var assignments []models.Assignment
	err := query.Preload("Emergency").Preload("Volunteer.User").
		Order("assigned_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&assignments).Error
	return assignments, total, err
}

func (r *AssignmentRepositoryImpl) FindByEmergency(emergencyID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.Preload("Volunteer.User").
		Where("emergency_id = ?", emergencyID).
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepositoryImpl) SaveTransition(assignment *models.Assignment, from models.AssignmentStatus) error {
	result := r.db.Model(&models.Assignment{}).
		Where("id = ? AND status = ?", assignment.ID, from).
		Updates(map[string]interface{}{
			"status":       assignment.Status,
			"notes":        assignment.Notes,
			"responded_at": assignment.RespondedAt,
			"completed_at": assignment.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleAssignment
	}
	return nil
}

func (r *AssignmentRepositoryImpl) CountByEmergencyAndStatus(emergencyID string, status models.AssignmentStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.Assignment{}).
		Where("emergency_id = ? AND status = ?", emergencyID, status).
		Count(&count).Error
	return count, err
}

// CancelRequestedForEmergency bulk-cancels still-pending requests when the
// emergency itself is cancelled or completed.
func (r *AssignmentRepositoryImpl) CancelRequestedForEmergency(emergencyID string, now time.Time) (int64, error) {
	result := r.db.Model(&models.Assignment{}).
		Where("emergency_id = ? AND status = ?", emergencyID, models.AssignmentStatusRequested).
		Updates(map[string]interface{}{
			"status":       models.AssignmentStatusCancelled,
			"responded_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *AssignmentRepositoryImpl) FindOverdueRequested(cutoff time.Time) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.Preload("Emergency").
		Where("status = ? AND assigned_at < ?", models.AssignmentStatusRequested, cutoff).
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepositoryImpl) FindActiveByVolunteer(volunteerID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.Preload("Emergency").
		Where("volunteer_id = ?", volunteerID).
		Where("status IN ?", []models.AssignmentStatus{models.AssignmentStatusRequested, models.AssignmentStatusAccepted}).
		Find(&assignments).Error
	return assignments, err
}
