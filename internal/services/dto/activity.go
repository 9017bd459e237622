package dto

import (
	"encoding/json"
	"time"

	"crisislink_backend/internal/models"
)

type ActivityEntryResponse struct {
	ID         string                 `json:"id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *string                `json:"entity_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

func NewActivityEntryResponse(e *models.ActivityLog) *ActivityEntryResponse {
	resp := &ActivityEntryResponse{
		ID:         e.ID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		CreatedAt:  e.CreatedAt,
	}
	if len(e.Details) > 0 {
		// Details carry no fixed schema; decode best-effort
		var details map[string]interface{}
		if err := json.Unmarshal(e.Details, &details); err == nil {
			resp.Details = details
		}
	}
	return resp
}
