package dto

import (
	"time"

	"crisislink_backend/internal/models"
)

type RequiredSkillInput struct {
	SkillID     string `json:"skill_id" validate:"required,uuid"`
	IsMandatory bool   `json:"is_mandatory"`
}

type CreateEmergencyRequest struct {
	Title              string               `json:"title" validate:"required,min=3,max=200"`
	Description        string               `json:"description" validate:"omitempty,max=5000"`
	Latitude           float64              `json:"latitude" validate:"latitude"`
	Longitude          float64              `json:"longitude" validate:"longitude"`
	Priority           string               `json:"priority" validate:"required,is-priority"`
	RequiredVolunteers int                  `json:"required_volunteers" validate:"required,min=1,max=500"`
	SearchRadiusKm     float64              `json:"search_radius_km" validate:"omitempty,min=0.1,max=100"`
	RequiredSkills     []RequiredSkillInput `json:"required_skills" validate:"omitempty,dive"`
}

type UpdateEmergencyRequest struct {
	Title              *string              `json:"title" validate:"omitempty,min=3,max=200"`
	Description        *string              `json:"description" validate:"omitempty,max=5000"`
	Latitude           *float64             `json:"latitude" validate:"omitempty,latitude"`
	Longitude          *float64             `json:"longitude" validate:"omitempty,longitude"`
	RequiredVolunteers *int                 `json:"required_volunteers" validate:"omitempty,min=1,max=500"`
	RequiredSkills     []RequiredSkillInput `json:"required_skills" validate:"omitempty,dive"`
}

type CancelEmergencyRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type CompleteEmergencyRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=1000"`
}

type AssignVolunteerRequest struct {
	VolunteerID string `json:"volunteer_id" validate:"required,uuid"`
}

type EmergencyResponse struct {
	ID                 string                  `json:"id"`
	AuthorityID        string                  `json:"authority_id"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description,omitempty"`
	Latitude           float64                 `json:"latitude"`
	Longitude          float64                 `json:"longitude"`
	Priority           models.PriorityLevel    `json:"priority"`
	Status             models.EmergencyStatus  `json:"status"`
	RequiredVolunteers int                     `json:"required_volunteers"`
	VolunteersNeeded   int                     `json:"volunteers_needed"`
	SearchRadiusKm     float64                 `json:"search_radius_km"`
	EscalationCount    int                     `json:"escalation_count"`
	ExpiresAt          time.Time               `json:"expires_at"`
	CreatedAt          time.Time               `json:"created_at"`
	RequiredSkills     []RequiredSkillResponse `json:"required_skills"`
}

type RequiredSkillResponse struct {
	SkillID     string               `json:"skill_id"`
	Name        string               `json:"name,omitempty"`
	Category    models.SkillCategory `json:"category,omitempty"`
	IsMandatory bool                 `json:"is_mandatory"`
}

// NewEmergencyResponse builds the API shape. acceptedCount feeds the
// derived volunteers_needed field.
func NewEmergencyResponse(e *models.EmergencyRequest, acceptedCount int) *EmergencyResponse {
	resp := &EmergencyResponse{
		ID:                 e.ID,
		AuthorityID:        e.AuthorityID,
		Title:              e.Title,
		Description:        e.Description,
		Latitude:           e.Latitude,
		Longitude:          e.Longitude,
		Priority:           e.Priority,
		Status:             e.Status,
		RequiredVolunteers: e.RequiredVolunteers,
		VolunteersNeeded:   e.VolunteersNeeded(acceptedCount),
		SearchRadiusKm:     e.SearchRadiusKm,
		EscalationCount:    e.EscalationCount,
		ExpiresAt:          e.ExpiresAt,
		CreatedAt:          e.CreatedAt,
		RequiredSkills:     make([]RequiredSkillResponse, 0, len(e.RequiredSkills)),
	}
	for _, rs := range e.RequiredSkills {
		item := RequiredSkillResponse{
			SkillID:     rs.SkillID,
			IsMandatory: rs.IsMandatory,
		}
		if rs.Skill != nil {
			item.Name = rs.Skill.Name
			item.Category = rs.Skill.Category
		}
		resp.RequiredSkills = append(resp.RequiredSkills, item)
	}
	return resp
}
