package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is append-only. Rows are written in the same transaction as
// the state change they describe and are never updated afterwards.
type ActivityLog struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID     *string        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action     string         `gorm:"not null;index" json:"action"`
	EntityType string         `gorm:"not null;index:idx_activity_entity" json:"entity_type"`
	EntityID   *string        `gorm:"type:uuid;index:idx_activity_entity" json:"entity_id,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `gorm:"default:now();index" json:"created_at"`
}
