package repositories

import (
	"errors"
	"time"

	"crisislink_backend/internal/geo"
	"crisislink_backend/internal/models"

	"gorm.io/gorm"
)

var ErrEmergencyNotFound = errors.New("emergency not found")

type EmergencyRepository interface {
	WithTx(tx *gorm.DB) EmergencyRepository

	Create(emergency *models.EmergencyRequest) error
	FindByID(id string) (*models.EmergencyRequest, error)
	Update(emergency *models.EmergencyRequest) error
	UpdateStatusFrom(id string, from, to models.EmergencyStatus) error
	FindWithFilter(criteria EmergencyFilter) ([]models.EmergencyRequest, int64, error)

	// Required skills
	ReplaceRequiredSkills(emergencyID string, skills []models.EmergencyRequiredSkill) error
	FindRequiredSkills(emergencyID string) ([]models.EmergencyRequiredSkill, error)

	// Escalation sweep candidates: open/assigned, past expiry, under the
	// auto-escalation cap.
	FindExpiredForEscalation(now time.Time, maxEscalations int) ([]models.EmergencyRequest, error)

	// FindActiveByAuthority returns the authority's open and assigned
	// emergencies, for the account-block cascade.
	FindActiveByAuthority(authorityID string) ([]models.EmergencyRequest, error)

	// Volunteer-facing discovery
	FindOpenInBox(box geo.BoundingBox) ([]models.EmergencyRequest, error)

	// Stats
	CountByStatus(status models.EmergencyStatus) (int64, error)
	GetStatistics(authorityID string) (*EmergencyStats, error)
}

type EmergencyRepositoryImpl struct {
	db *gorm.DB
}

type EmergencyFilter struct {
	AuthorityID string                 `form:"-"`
	Status      models.EmergencyStatus `form:"status"`
	Priority    models.PriorityLevel   `form:"priority"`
	Page        int                    `form:"page"`
	PageSize    int                    `form:"page_size"`
}

type EmergencyStats struct {
	Total              int64            `json:"total"`
	ByStatus           map[string]int64 `json:"by_status"`
	ByPriority         map[string]int64 `json:"by_priority"`
	Escalated          int64            `json:"escalated"`
	AvgTimeToAssignSec float64          `json:"avg_time_to_assign_seconds"`
}

func NewEmergencyRepository(db *gorm.DB) EmergencyRepository {
	return &EmergencyRepositoryImpl{db: db}
}

func (r *EmergencyRepositoryImpl) WithTx(tx *gorm.DB) EmergencyRepository {
	return &EmergencyRepositoryImpl{db: tx}
}

func (r *EmergencyRepositoryImpl) Create(emergency *models.EmergencyRequest) error {
	return r.db.Create(emergency).Error
}

func (r *EmergencyRepositoryImpl) FindByID(id string) (*models.EmergencyRequest, error) {
	var emergency models.EmergencyRequest
	err := r.db.Preload("Authority").Preload("RequiredSkills.Skill").First(&emergency, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmergencyNotFound
		}
		return nil, err
	}
	return &emergency, nil
}

func (r *EmergencyRepositoryImpl) Update(emergency *models.EmergencyRequest) error {
	return r.db.Save(emergency).Error
}

// UpdateStatusFrom is a conditional update: it only succeeds when the row
// still holds the expected status, so concurrent transitions cannot race.
func (r *EmergencyRepositoryImpl) UpdateStatusFrom(id string, from, to models.EmergencyStatus) error {
	result := r.db.Model(&models.EmergencyRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmergencyNotFound
	}
	return nil
}

func (r *EmergencyRepositoryImpl) FindWithFilter(criteria EmergencyFilter) ([]models.EmergencyRequest, int64, error) {
	query := r.db.Model(&models.EmergencyRequest{})

	if criteria.AuthorityID != "" {
		query = query.Where("authority_id = ?", criteria.AuthorityID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.Priority != "" {
		query = query.Where("priority = ?", criteria.Priority)
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

	var emergencies []models.EmergencyRequest
	err := query.Preload("RequiredSkills.Skill").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&emergencies).Error
	return emergencies, total, err
}

// Required skills

func (r *EmergencyRepositoryImpl) ReplaceRequiredSkills(emergencyID string, skills []models.EmergencyRequiredSkill) error {
	if err := r.db.Where("emergency_id = ?", emergencyID).Delete(&models.EmergencyRequiredSkill{}).Error; err != nil {
		return err
	}
	if len(skills) == 0 {
		return nil
	}
	return r.db.Create(&skills).Error
}

func (r *EmergencyRepositoryImpl) FindRequiredSkills(emergencyID string) ([]models.EmergencyRequiredSkill, error) {
	var skills []models.EmergencyRequiredSkill
	err := r.db.Preload("Skill").Where("emergency_id = ?", emergencyID).Find(&skills).Error
	return skills, err
}

// Escalation

func (r *EmergencyRepositoryImpl) FindExpiredForEscalation(now time.Time, maxEscalations int) ([]models.EmergencyRequest, error) {
	var emergencies []models.EmergencyRequest
	err := r.db.Preload("RequiredSkills.Skill").
		Where("status IN ?", []models.EmergencyStatus{models.EmergencyStatusOpen, models.EmergencyStatusAssigned}).
		Where("expires_at < ?", now).
		Where("escalation_count < ?", maxEscalations).
		// priority is stored as text, map it to its rank so critical sweeps first
		Order("CASE priority WHEN 'critical' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END DESC, expires_at ASC").
		Find(&emergencies).Error
	return emergencies, err
}

func (r *EmergencyRepositoryImpl) FindActiveByAuthority(authorityID string) ([]models.EmergencyRequest, error) {
	var emergencies []models.EmergencyRequest
	err := r.db.
		Where("authority_id = ?", authorityID).
		Where("status IN ?", []models.EmergencyStatus{models.EmergencyStatusOpen, models.EmergencyStatusAssigned}).
		Find(&emergencies).Error
	return emergencies, err
}

func (r *EmergencyRepositoryImpl) FindOpenInBox(box geo.BoundingBox) ([]models.EmergencyRequest, error) {
	var emergencies []models.EmergencyRequest
	err := r.db.Preload("RequiredSkills.Skill").
		Where("status = ?", models.EmergencyStatusOpen).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon).
		Find(&emergencies).Error
	return emergencies, err
}

// Stats

func (r *EmergencyRepositoryImpl) CountByStatus(status models.EmergencyStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.EmergencyRequest{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *EmergencyRepositoryImpl) GetStatistics(authorityID string) (*EmergencyStats, error) {
	stats := &EmergencyStats{
		ByStatus:   make(map[string]int64),
		ByPriority: make(map[string]int64),
	}

	base := r.db.Model(&models.EmergencyRequest{})
	if authorityID != "" {
		base = base.Where("authority_id = ?", authorityID)
	}

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type group struct {
		Key   string
		Count int64
	}

	var byStatus []group
	if err := base.Session(&gorm.Session{}).Select("status as key, count(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		stats.ByStatus[g.Key] = g.Count
	}

	var byPriority []group
	if err := base.Session(&gorm.Session{}).Select("priority as key, count(*) as count").Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, err
	}
	for _, g := range byPriority {
		stats.ByPriority[g.Key] = g.Count
	}

	if err := base.Session(&gorm.Session{}).Where("escalation_count > 0").Count(&stats.Escalated).Error; err != nil {
		return nil, err
	}

	// Mean seconds from emergency creation to its first accepted assignment.
	avgSQL := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM a.responded_at - e.created_at)), 0)
		FROM emergency_requests e
		JOIN assignments a ON a.emergency_id = e.id AND a.status = 'accepted'`
	var row *gorm.DB
	if authorityID != "" {
		row = r.db.Raw(avgSQL+" WHERE e.authority_id = ?", authorityID)
	} else {
		row = r.db.Raw(avgSQL)
	}
	if err := row.Scan(&stats.AvgTimeToAssignSec).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
