package services

import (
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/services/dto"
)

// Scoring weights for ranking volunteers against an emergency. Distance
// dominates, mandatory skills swing hard in both directions, optional
// skills and priority add smaller bonuses.
const (
	distanceWeightMax = 40.0
	mandatoryBonus    = 25.0
	mandatoryPenalty  = 20.0
	optionalWeightMax = 15.0
	maxScore          = 100.0

	// Weights for the inverse direction (nearby emergencies for a volunteer).
	volDistanceWeightMax = 30.0
	volSkillWeightMax    = 30.0
	volSkillFlatBonus    = 15.0
)

var priorityBonus = map[models.PriorityLevel]float64{
	models.PriorityLow:      0,
	models.PriorityMedium:   5,
	models.PriorityHigh:     10,
	models.PriorityCritical: 20,
}

var volunteerPriorityBonus = map[models.PriorityLevel]float64{
	models.PriorityLow:      10,
	models.PriorityMedium:   20,
	models.PriorityHigh:     30,
	models.PriorityCritical: 40,
}

// matchSkills partitions an emergency's requirements against the
// volunteer's verified skill set.
func matchSkills(required []models.EmergencyRequiredSkill, verifiedSkillIDs []string) *dto.SkillMatch {
	verified := make(map[string]bool, len(verifiedSkillIDs))
	for _, id := range verifiedSkillIDs {
		verified[id] = true
	}

	match := &dto.SkillMatch{
		MandatoryMatched: []string{},
		MandatoryMissing: []string{},
		OptionalMatched:  []string{},
	}

	for _, rs := range required {
		if rs.IsMandatory {
			match.MandatoryTotal++
			if verified[rs.SkillID] {
				match.MandatoryMatched = append(match.MandatoryMatched, rs.SkillID)
			} else {
				match.MandatoryMissing = append(match.MandatoryMissing, rs.SkillID)
			}
		} else {
			match.OptionalTotal++
			if verified[rs.SkillID] {
				match.OptionalMatched = append(match.OptionalMatched, rs.SkillID)
			}
		}
	}

	match.HasAllMandatory = len(match.MandatoryMissing) == 0
	return match
}

// scoreVolunteer computes the 0-100 ranking score of a volunteer for an
// emergency.
func scoreVolunteer(distanceKm, searchRadiusKm float64, priority models.PriorityLevel, skills *dto.SkillMatch) float64 {
	score := 0.0

	// Distance: full weight at the center, zero at the radius edge
	if searchRadiusKm > 0 {
		d := distanceWeightMax * (1 - distanceKm/searchRadiusKm)
		if d > 0 {
			score += d
		}
	}

	// Mandatory skills gate a strong swing, missing any costs points
	if skills.MandatoryTotal > 0 {
		if skills.HasAllMandatory {
			score += mandatoryBonus
		} else {
			score -= mandatoryPenalty
		}
	}

	// Optional skills add a partial bonus
	if skills.OptionalTotal > 0 {
		ratio := float64(len(skills.OptionalMatched)) / float64(skills.OptionalTotal)
		bonus := ratio * optionalWeightMax
		if bonus > optionalWeightMax {
			bonus = optionalWeightMax
		}
		score += bonus
	}

	score += priorityBonus[priority]

	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// scoreEmergencyForVolunteer is the inverse ranking used for a
// volunteer's "nearby emergencies" view. Returns (score, eligible);
// a volunteer matching none of a skill-gated emergency's requirements
// is excluded entirely.
func scoreEmergencyForVolunteer(distanceKm, radiusKm float64, priority models.PriorityLevel, skills *dto.SkillMatch) (float64, bool) {
	totalRequired := skills.MandatoryTotal + skills.OptionalTotal
	totalMatched := len(skills.MandatoryMatched) + len(skills.OptionalMatched)

	if totalRequired > 0 && totalMatched == 0 {
		return 0, false
	}

	score := 0.0

	if radiusKm > 0 {
		d := volDistanceWeightMax * (1 - distanceKm/radiusKm)
		if d > 0 {
			score += d
		}
	}

	score += volunteerPriorityBonus[priority]

	if totalRequired > 0 {
		score += float64(totalMatched) / float64(totalRequired) * volSkillWeightMax
	} else {
		score += volSkillFlatBonus
	}

	if score > maxScore {
		score = maxScore
	}
	return score, true
}
