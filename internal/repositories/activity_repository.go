package repositories

import (
	"encoding/json"
	"errors"
	"time"

	"crisislink_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrActivityNotFound = errors.New("activity entry not found")

// Activity actions. notification_sent rows double as the notification
// store: recipients poll their feed instead of receiving pushes.
const (
	ActionNotificationSent = "notification_sent"

	ActionEmergencyCreated    = "emergency_created"
	ActionEmergencyUpdated    = "emergency_updated"
	ActionEmergencyEscalated  = "emergency_escalated"
	ActionAutomaticEscalation = "automatic_escalation"
	ActionEmergencyCancelled  = "emergency_cancelled"
	ActionEmergencyCompleted  = "emergency_completed"

	ActionAssignmentCreated   = "assignment_created"
	ActionAssignmentAccepted  = "assignment_accepted"
	ActionAssignmentDeclined  = "assignment_declined"
	ActionAssignmentCompleted = "assignment_completed"
	ActionAssignmentCancelled = "assignment_cancelled"

	ActionSkillClaimed  = "skill_claimed"
	ActionSkillVerified = "skill_verified"
	ActionSkillRejected = "skill_rejected"

	ActionUserRegistered = "user_registered"
	ActionUserLogin      = "user_login"
	ActionUserBlocked    = "user_blocked"
	ActionUserUnblocked  = "user_unblocked"
)

// Notification types carried in notification_sent details.
const (
	NotificationTypeAssignmentRequest  = "assignment_request"
	NotificationTypeAssignmentUpdate   = "assignment_update"
	NotificationTypeEmergencyEscalated = "emergency_escalated"
	NotificationTypeSkillVerification  = "skill_verification"
)

type ActivityRepository interface {
	WithTx(tx *gorm.DB) ActivityRepository

	Create(entry *models.ActivityLog) error
	FindByID(id string) (*models.ActivityLog, error)
	FindUserFeed(userID string, criteria ActivityCriteria) ([]models.ActivityLog, int64, error)
	FindEntityHistory(entityType, entityID string) ([]models.ActivityLog, error)

	// Factory methods for common entry shapes
	LogAction(userID *string, action, entityType string, entityID *string, details map[string]interface{}, meta *models.RequestMeta) error
	LogNotification(recipientID string, notificationType, title, message string, related map[string]interface{}) error

	// Reporting
	GetNotificationTimingStats(since time.Time) (*NotificationTimingStats, error)
	CountSince(action string, since time.Time) (int64, error)
}

type ActivityRepositoryImpl struct {
	db *gorm.DB
}

type ActivityCriteria struct {
	Action   string `form:"action"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// NotificationTimingStats measures the "notify within 1 minute" business
// rule after the fact, from durably recorded rows.
type NotificationTimingStats struct {
	Total           int64   `json:"total"`
	WithinOneMinute int64   `json:"within_one_minute"`
	AvgLagSeconds   float64 `json:"avg_lag_seconds"`
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (r *ActivityRepositoryImpl) WithTx(tx *gorm.DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: tx}
}

func (r *ActivityRepositoryImpl) Create(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *ActivityRepositoryImpl) FindByID(id string) (*models.ActivityLog, error) {
	var entry models.ActivityLog
	err := r.db.First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *ActivityRepositoryImpl) FindUserFeed(userID string, criteria ActivityCriteria) ([]models.ActivityLog, int64, error) {
	query := r.db.Model(&models.ActivityLog{}).Where("user_id = ?", userID)

	if criteria.Action != "" {
		query = query.Where("action = ?", criteria.Action)
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

	var entries []models.ActivityLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	return entries, total, err
}

func (r *ActivityRepositoryImpl) FindEntityHistory(entityType, entityID string) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// Factory methods

func (r *ActivityRepositoryImpl) LogAction(userID *string, action, entityType string, entityID *string, details map[string]interface{}, meta *models.RequestMeta) error {
	entry := &models.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = datatypes.JSON(raw)
	}

	if meta != nil {
		entry.IPAddress = meta.IPAddress
		entry.UserAgent = meta.UserAgent
	}

	return r.db.Create(entry).Error
}

// LogNotification appends a notification row addressed to recipientID.
// triggered_at is stamped so delivery lag can be measured later.
func (r *ActivityRepositoryImpl) LogNotification(recipientID string, notificationType, title, message string, related map[string]interface{}) error {
	details := map[string]interface{}{
		"type":         notificationType,
		"title":        title,
		"message":      message,
		"triggered_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range related {
		details[k] = v
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}

	entry := &models.ActivityLog{
		UserID:     &recipientID,
		Action:     ActionNotificationSent,
		EntityType: "notification",
		Details:    datatypes.JSON(raw),
	}
	return r.db.Create(entry).Error
}

// Reporting

func (r *ActivityRepositoryImpl) GetNotificationTimingStats(since time.Time) (*NotificationTimingStats, error) {
	stats := &NotificationTimingStats{}

	err := r.db.Raw(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (
				WHERE created_at - (details->>'triggered_at')::timestamptz < INTERVAL '1 minute'
			),
			COALESCE(AVG(EXTRACT(EPOCH FROM created_at - (details->>'triggered_at')::timestamptz)), 0)
		FROM activity_logs
		WHERE action = ? AND created_at >= ? AND jsonb_exists(details, 'triggered_at')
	`, ActionNotificationSent, since).
		Row().Scan(&stats.Total, &stats.WithinOneMinute, &stats.AvgLagSeconds)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ActivityRepositoryImpl) CountSince(action string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.ActivityLog{}).
		Where("action = ? AND created_at >= ?", action, since).
		Count(&count).Error
	return count, err
}
