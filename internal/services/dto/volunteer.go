package dto

import (
	"time"

	"crisislink_backend/internal/models"
)

type UpsertVolunteerProfileRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Bio       string   `json:"bio" validate:"omitempty,max=2000"`
}

type SetAvailabilityRequest struct {
	Status string `json:"status" validate:"required,is-availability"`
}

type ClaimSkillRequest struct {
	SkillID string `json:"skill_id" validate:"required,uuid"`
}

type VolunteerProfileResponse struct {
	ID                 string                    `json:"id"`
	UserID             string                    `json:"user_id"`
	Latitude           *float64                  `json:"latitude,omitempty"`
	Longitude          *float64                  `json:"longitude,omitempty"`
	AvailabilityStatus models.AvailabilityStatus `json:"availability_status"`
	Bio                string                    `json:"bio,omitempty"`
	Skills             []VolunteerSkillResponse  `json:"skills"`
}

type VolunteerSkillResponse struct {
	ID                 string                    `json:"id"`
	SkillID            string                    `json:"skill_id"`
	SkillName          string                    `json:"skill_name,omitempty"`
	Category           models.SkillCategory      `json:"category,omitempty"`
	VerificationStatus models.VerificationStatus `json:"verification_status"`
	DocumentsPath      string                    `json:"documents_path,omitempty"`
	VerifiedAt         *time.Time                `json:"verified_at,omitempty"`
}

func NewVolunteerProfileResponse(p *models.VolunteerProfile) *VolunteerProfileResponse {
	resp := &VolunteerProfileResponse{
		ID:                 p.ID,
		UserID:             p.UserID,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		AvailabilityStatus: p.AvailabilityStatus,
		Bio:                p.Bio,
		Skills:             make([]VolunteerSkillResponse, 0, len(p.Skills)),
	}
	for _, vs := range p.Skills {
		resp.Skills = append(resp.Skills, NewVolunteerSkillResponse(&vs))
	}
	return resp
}

func NewVolunteerSkillResponse(vs *models.VolunteerSkill) VolunteerSkillResponse {
	r := VolunteerSkillResponse{
		ID:                 vs.ID,
		SkillID:            vs.SkillID,
		VerificationStatus: vs.VerificationStatus,
		DocumentsPath:      vs.DocumentsPath,
		VerifiedAt:         vs.VerifiedAt,
	}
	if vs.Skill != nil {
		r.SkillName = vs.Skill.Name
		r.Category = vs.Skill.Category
	}
	return r
}
