package models

type UserRole string
type AvailabilityStatus string
type SkillCategory string
type VerificationStatus string
type PriorityLevel string
type EmergencyStatus string
type AssignmentStatus string

const (
	UserRoleVolunteer UserRole = "volunteer"
	UserRoleAuthority UserRole = "authority"
	UserRoleAdmin     UserRole = "admin"

	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityOffline   AvailabilityStatus = "offline"

	SkillCategoryMedical       SkillCategory = "medical"
	SkillCategoryRescue        SkillCategory = "rescue"
	SkillCategoryLogistics     SkillCategory = "logistics"
	SkillCategoryTechnical     SkillCategory = "technical"
	SkillCategoryCommunication SkillCategory = "communication"
	SkillCategoryOther         SkillCategory = "other"

	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"

	PriorityLow      PriorityLevel = "low"
	PriorityMedium   PriorityLevel = "medium"
	PriorityHigh     PriorityLevel = "high"
	PriorityCritical PriorityLevel = "critical"

	EmergencyStatusOpen      EmergencyStatus = "open"
	EmergencyStatusAssigned  EmergencyStatus = "assigned"
	EmergencyStatusCompleted EmergencyStatus = "completed"
	EmergencyStatusCancelled EmergencyStatus = "cancelled"

	AssignmentStatusRequested AssignmentStatus = "requested"
	AssignmentStatusAccepted  AssignmentStatus = "accepted"
	AssignmentStatusDeclined  AssignmentStatus = "declined"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

// priorityRank orders priorities for escalation bumps and scoring.
var priorityRank = map[PriorityLevel]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Rank returns the numeric position of the priority on the low..critical
// scale, -1 for unknown values.
func (p PriorityLevel) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return -1
}

// Next returns the priority one level up. Critical stays critical.
func (p PriorityLevel) Next() PriorityLevel {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh, PriorityCritical:
		return PriorityCritical
	default:
		return p
	}
}

func (p PriorityLevel) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// IsTerminal reports whether the emergency can no longer change state.
func (s EmergencyStatus) IsTerminal() bool {
	return s == EmergencyStatusCompleted || s == EmergencyStatusCancelled
}

// IsTerminal reports whether the assignment can no longer change state.
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusDeclined || s == AssignmentStatusCompleted || s == AssignmentStatusCancelled
}
