package dto

import (
	"time"

	"crisislink_backend/internal/models"
)

type AssignmentActionRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=1000"`
}

type AssignmentResponse struct {
	ID          string                  `json:"id"`
	EmergencyID string                  `json:"emergency_id"`
	VolunteerID string                  `json:"volunteer_id"`
	Status      models.AssignmentStatus `json:"status"`
	Notes       string                  `json:"notes,omitempty"`
	AssignedAt  time.Time               `json:"assigned_at"`
	RespondedAt *time.Time              `json:"responded_at,omitempty"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`

	EmergencyTitle    string                 `json:"emergency_title,omitempty"`
	EmergencyPriority models.PriorityLevel   `json:"emergency_priority,omitempty"`
	EmergencyStatus   models.EmergencyStatus `json:"emergency_status,omitempty"`
	VolunteerName     string                 `json:"volunteer_name,omitempty"`
}

func NewAssignmentResponse(a *models.Assignment) *AssignmentResponse {
	resp := &AssignmentResponse{
		ID:          a.ID,
		EmergencyID: a.EmergencyID,
		VolunteerID: a.VolunteerID,
		Status:      a.Status,
		Notes:       a.Notes,
		AssignedAt:  a.AssignedAt,
		RespondedAt: a.RespondedAt,
		CompletedAt: a.CompletedAt,
	}
	if a.Emergency != nil {
		resp.EmergencyTitle = a.Emergency.Title
		resp.EmergencyPriority = a.Emergency.Priority
		resp.EmergencyStatus = a.Emergency.Status
	}
	if a.Volunteer != nil && a.Volunteer.User != nil {
		resp.VolunteerName = a.Volunteer.User.FullName()
	}
	return resp
}
