package models

import (
	"fmt"
	"time"
)

type EmergencyRequest struct {
	BaseModel
	AuthorityID        string          `gorm:"not null;index" json:"authority_id"`
	Title              string          `gorm:"not null" json:"title"`
	Description        string          `json:"description"`
	Latitude           float64         `gorm:"not null" json:"latitude"`
	Longitude          float64         `gorm:"not null" json:"longitude"`
	Priority           PriorityLevel   `gorm:"type:varchar(20);not null" json:"priority"`
	Status             EmergencyStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`
	RequiredVolunteers int             `gorm:"not null;default:1" json:"required_volunteers"`
	SearchRadiusKm     float64         `gorm:"not null" json:"search_radius_km"`
	EscalationCount    int             `gorm:"default:0" json:"escalation_count"`
	ExpiresAt          time.Time       `gorm:"index" json:"expires_at"`

	// Relations
	Authority      *User                   `gorm:"foreignKey:AuthorityID" json:"authority,omitempty"`
	RequiredSkills []EmergencyRequiredSkill `gorm:"foreignKey:EmergencyID" json:"required_skills,omitempty"`
	Assignments    []Assignment             `gorm:"foreignKey:EmergencyID" json:"-"`
}

// VolunteersNeeded derives the remaining open slots from the accepted count.
func (e *EmergencyRequest) VolunteersNeeded(acceptedCount int) int {
	needed := e.RequiredVolunteers - acceptedCount
	if needed < 0 {
		return 0
	}
	return needed
}

// Escalate bumps priority one level, doubles the search radius capped at
// maxRadiusKm, and pushes the expiry out by timeout. The caller persists
// the mutation.
func (e *EmergencyRequest) Escalate(maxRadiusKm float64, timeout time.Duration, now time.Time) {
	e.EscalationCount++
	e.Priority = e.Priority.Next()
	radius := e.SearchRadiusKm * 2
	if radius > maxRadiusKm {
		radius = maxRadiusKm
	}
	e.SearchRadiusKm = radius
	e.ExpiresAt = now.Add(timeout)
}

// MarkAssigned flips open -> assigned once the last slot is filled.
func (e *EmergencyRequest) MarkAssigned() error {
	if e.Status != EmergencyStatusOpen {
		return fmt.Errorf("cannot mark %s emergency as assigned", e.Status)
	}
	e.Status = EmergencyStatusAssigned
	return nil
}

// Reopen reverts assigned -> open after an accepted assignment is cancelled.
func (e *EmergencyRequest) Reopen() error {
	if e.Status != EmergencyStatusAssigned {
		return fmt.Errorf("cannot reopen %s emergency", e.Status)
	}
	e.Status = EmergencyStatusOpen
	return nil
}

// MarkCompleted is valid from open or assigned.
func (e *EmergencyRequest) MarkCompleted() error {
	if e.Status.IsTerminal() {
		return fmt.Errorf("cannot complete %s emergency", e.Status)
	}
	e.Status = EmergencyStatusCompleted
	return nil
}

// MarkCancelled is valid from open or assigned.
func (e *EmergencyRequest) MarkCancelled() error {
	if e.Status.IsTerminal() {
		return fmt.Errorf("cannot cancel %s emergency", e.Status)
	}
	e.Status = EmergencyStatusCancelled
	return nil
}

// IsExpired reports whether the emergency passed its escalation deadline.
func (e *EmergencyRequest) IsExpired(now time.Time) bool {
	return e.ExpiresAt.Before(now)
}

type EmergencyRequiredSkill struct {
	BaseModel
	EmergencyID string `gorm:"not null;index;uniqueIndex:idx_emergency_skill" json:"emergency_id"`
	SkillID     string `gorm:"not null;uniqueIndex:idx_emergency_skill" json:"skill_id"`
	IsMandatory bool   `gorm:"default:false" json:"is_mandatory"`

	// Relations
	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}
