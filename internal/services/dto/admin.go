package dto

import (
	"time"

	"crisislink_backend/internal/models"
)

type VerifySkillRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason" validate:"omitempty,max=1000"`
}

type BlockUserRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type PendingVerificationResponse struct {
	ID            string               `json:"id"`
	VolunteerID   string               `json:"volunteer_id"`
	SkillID       string               `json:"skill_id"`
	SkillName     string               `json:"skill_name,omitempty"`
	Category      models.SkillCategory `json:"category,omitempty"`
	DocumentsPath string               `json:"documents_path,omitempty"`
	ClaimedAt     time.Time            `json:"claimed_at"`
}

func NewPendingVerificationResponse(vs *models.VolunteerSkill) *PendingVerificationResponse {
	resp := &PendingVerificationResponse{
		ID:            vs.ID,
		VolunteerID:   vs.VolunteerID,
		SkillID:       vs.SkillID,
		DocumentsPath: vs.DocumentsPath,
		ClaimedAt:     vs.CreatedAt,
	}
	if vs.Skill != nil {
		resp.SkillName = vs.Skill.Name
		resp.Category = vs.Skill.Category
	}
	return resp
}

// PlatformOverview is the admin dashboard snapshot.
type PlatformOverview struct {
	TotalVolunteers      int64 `json:"total_volunteers"`
	TotalAuthorities     int64 `json:"total_authorities"`
	AvailableVolunteers  int64 `json:"available_volunteers"`
	OpenEmergencies      int64 `json:"open_emergencies"`
	AssignedEmergencies  int64 `json:"assigned_emergencies"`
	PendingVerifications int64 `json:"pending_verifications"`
}
