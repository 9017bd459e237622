package dto

import "crisislink_backend/internal/models"

// SkillMatch breaks down how a volunteer's verified skills line up with
// an emergency's requirements.
type SkillMatch struct {
	HasAllMandatory  bool     `json:"has_all_mandatory"`
	MandatoryTotal   int      `json:"mandatory_total"`
	MandatoryMatched []string `json:"mandatory_matched"`
	MandatoryMissing []string `json:"mandatory_missing"`
	OptionalTotal    int      `json:"optional_total"`
	OptionalMatched  []string `json:"optional_matched"`
}

// VolunteerMatch is one ranked candidate for an emergency.
type VolunteerMatch struct {
	VolunteerID string      `json:"volunteer_id"`
	UserID      string      `json:"user_id"`
	Name        string      `json:"name,omitempty"`
	DistanceKm  float64     `json:"distance_km"`
	Score       float64     `json:"score"`
	SkillMatch  *SkillMatch `json:"skill_match"`
}

// EmergencyMatch is one ranked nearby emergency for a volunteer.
type EmergencyMatch struct {
	EmergencyID string               `json:"emergency_id"`
	Title       string               `json:"title"`
	Priority    models.PriorityLevel `json:"priority"`
	DistanceKm  float64              `json:"distance_km"`
	Score       float64              `json:"score"`
	SkillMatch  *SkillMatch          `json:"skill_match,omitempty"`
}

type MatchingStats struct {
	MatchableVolunteers int64 `json:"matchable_volunteers"`
	OpenEmergencies     int64 `json:"open_emergencies"`
	AssignmentsToday    int64 `json:"assignments_today"`
	EscalationsToday    int64 `json:"escalations_today"`
}

// RadiusSuggestion reports the radius at which enough candidates appear.
type RadiusSuggestion struct {
	CurrentRadiusKm   float64 `json:"current_radius_km"`
	SuggestedRadiusKm float64 `json:"suggested_radius_km"`
	CandidatesFound   int     `json:"candidates_found"`
	CandidatesNeeded  int     `json:"candidates_needed"`
}
