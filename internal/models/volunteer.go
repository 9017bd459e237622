package models

import "time"

type VolunteerProfile struct {
	BaseModel
	UserID             string             `gorm:"uniqueIndex;not null" json:"user_id"`
	Latitude           *float64           `json:"latitude"`
	Longitude          *float64           `json:"longitude"`
	AvailabilityStatus AvailabilityStatus `gorm:"type:varchar(20);default:'offline'" json:"availability_status"`
	Bio                string             `json:"bio"`

	// Relations
	User        *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Skills      []VolunteerSkill `gorm:"foreignKey:VolunteerID" json:"skills,omitempty"`
	Assignments []Assignment     `gorm:"foreignKey:VolunteerID" json:"-"`
}

// HasCoordinates reports whether the profile can take part in geo matching.
func (p *VolunteerProfile) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// VerifiedSkillIDs returns the skill IDs counted toward matching.
func (p *VolunteerProfile) VerifiedSkillIDs() []string {
	var ids []string
	for _, vs := range p.Skills {
		if vs.VerificationStatus == VerificationVerified {
			ids = append(ids, vs.SkillID)
		}
	}
	return ids
}

type VolunteerSkill struct {
	BaseModel
	VolunteerID        string             `gorm:"not null;index;uniqueIndex:idx_volunteer_skill" json:"volunteer_id"`
	SkillID            string             `gorm:"not null;uniqueIndex:idx_volunteer_skill" json:"skill_id"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);default:'pending'" json:"verification_status"`
	DocumentsPath      string             `json:"documents_path,omitempty"`
	VerifiedBy         *string            `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`

	// Relations
	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}
