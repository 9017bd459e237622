package models

import (
	"fmt"
	"time"
)

type Assignment struct {
	BaseModel
	EmergencyID string           `gorm:"not null;index;uniqueIndex:idx_emergency_volunteer" json:"emergency_id"`
	VolunteerID string           `gorm:"not null;index;uniqueIndex:idx_emergency_volunteer" json:"volunteer_id"`
	Status      AssignmentStatus `gorm:"type:varchar(20);default:'requested';index" json:"status"`
	Notes       string           `json:"notes"`
	AssignedAt  time.Time        `gorm:"default:now()" json:"assigned_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`

	// Relations
	Emergency *EmergencyRequest `gorm:"foreignKey:EmergencyID" json:"emergency,omitempty"`
	Volunteer *VolunteerProfile `gorm:"foreignKey:VolunteerID" json:"volunteer,omitempty"`
}

// Accept transitions requested -> accepted.
func (a *Assignment) Accept(notes string, now time.Time) error {
	if a.Status != AssignmentStatusRequested {
		return fmt.Errorf("can only accept requested assignments, current status is %s", a.Status)
	}
	a.Status = AssignmentStatusAccepted
	a.RespondedAt = &now
	if notes != "" {
		a.Notes = notes
	}
	return nil
}

// Decline transitions requested -> declined.
func (a *Assignment) Decline(notes string, now time.Time) error {
	if a.Status != AssignmentStatusRequested {
		return fmt.Errorf("can only decline requested assignments, current status is %s", a.Status)
	}
	a.Status = AssignmentStatusDeclined
	a.RespondedAt = &now
	if notes != "" {
		a.Notes = notes
	}
	return nil
}

// Complete transitions accepted -> completed.
func (a *Assignment) Complete(notes string, now time.Time) error {
	if a.Status != AssignmentStatusAccepted {
		return fmt.Errorf("can only complete accepted assignments, current status is %s", a.Status)
	}
	a.Status = AssignmentStatusCompleted
	a.CompletedAt = &now
	if notes != "" {
		a.Notes = notes
	}
	return nil
}

// Cancel transitions any non-terminal status -> cancelled and reports
// whether the assignment was accepted at the time. The prior status is
// captured before mutation so callers can revert the owning emergency.
func (a *Assignment) Cancel(notes string, now time.Time) (wasAccepted bool, err error) {
	if a.Status.IsTerminal() {
		return false, fmt.Errorf("cannot cancel %s assignment", a.Status)
	}
	wasAccepted = a.Status == AssignmentStatusAccepted
	a.Status = AssignmentStatusCancelled
	if a.RespondedAt == nil {
		a.RespondedAt = &now
	}
	if notes != "" {
		a.Notes = notes
	}
	return wasAccepted, nil
}
