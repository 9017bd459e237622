package services

import (
	"testing"

	"crisislink_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredSkill(id string, mandatory bool) models.EmergencyRequiredSkill {
	return models.EmergencyRequiredSkill{SkillID: id, IsMandatory: mandatory}
}

func TestMatchSkills(t *testing.T) {
	required := []models.EmergencyRequiredSkill{
		requiredSkill("first-aid", true),
		requiredSkill("rescue", true),
		requiredSkill("radio", false),
		requiredSkill("driving", false),
	}

	t.Run("partial match", func(t *testing.T) {
		match := matchSkills(required, []string{"first-aid", "radio"})

		assert.False(t, match.HasAllMandatory)
		assert.Equal(t, 2, match.MandatoryTotal)
		assert.Equal(t, []string{"first-aid"}, match.MandatoryMatched)
		assert.Equal(t, []string{"rescue"}, match.MandatoryMissing)
		assert.Equal(t, 2, match.OptionalTotal)
		assert.Equal(t, []string{"radio"}, match.OptionalMatched)
	})

	t.Run("full match", func(t *testing.T) {
		match := matchSkills(required, []string{"first-aid", "rescue", "radio", "driving"})

		assert.True(t, match.HasAllMandatory)
		assert.Empty(t, match.MandatoryMissing)
		assert.Len(t, match.OptionalMatched, 2)
	})

	t.Run("no requirements", func(t *testing.T) {
		match := matchSkills(nil, []string{"first-aid"})

		assert.True(t, match.HasAllMandatory)
		assert.Zero(t, match.MandatoryTotal)
		assert.Zero(t, match.OptionalTotal)
	})
}

func TestScoreVolunteer(t *testing.T) {
	noSkills := matchSkills(nil, nil)

	t.Run("at center of critical emergency without skill requirements", func(t *testing.T) {
		// 40 distance + 0 skills + 20 priority
		score := scoreVolunteer(0, 10, models.PriorityCritical, noSkills)
		assert.InDelta(t, 60.0, score, 1e-9)
	})

	t.Run("distance component decays linearly", func(t *testing.T) {
		score := scoreVolunteer(5, 10, models.PriorityLow, noSkills)
		assert.InDelta(t, 20.0, score, 1e-9)

		score = scoreVolunteer(10, 10, models.PriorityLow, noSkills)
		assert.InDelta(t, 0.0, score, 1e-9)
	})

	t.Run("all mandatory skills verified adds the full bonus", func(t *testing.T) {
		required := []models.EmergencyRequiredSkill{requiredSkill("first-aid", true)}
		skills := matchSkills(required, []string{"first-aid"})

		score := scoreVolunteer(0, 10, models.PriorityLow, skills)
		assert.InDelta(t, 65.0, score, 1e-9) // 40 + 25
	})

	t.Run("missing a mandatory skill costs points", func(t *testing.T) {
		required := []models.EmergencyRequiredSkill{
			requiredSkill("first-aid", true),
			requiredSkill("rescue", true),
		}
		skills := matchSkills(required, []string{"first-aid"})

		score := scoreVolunteer(0, 10, models.PriorityLow, skills)
		assert.InDelta(t, 20.0, score, 1e-9) // 40 - 20
	})

	t.Run("optional skills scale up to their cap", func(t *testing.T) {
		required := []models.EmergencyRequiredSkill{
			requiredSkill("radio", false),
			requiredSkill("driving", false),
		}
		half := matchSkills(required, []string{"radio"})
		full := matchSkills(required, []string{"radio", "driving"})

		assert.InDelta(t, 47.5, scoreVolunteer(0, 10, models.PriorityLow, half), 1e-9) // 40 + 7.5
		assert.InDelta(t, 55.0, scoreVolunteer(0, 10, models.PriorityLow, full), 1e-9) // 40 + 15
	})

	t.Run("priority bonus per level", func(t *testing.T) {
		cases := map[models.PriorityLevel]float64{
			models.PriorityLow:      40,
			models.PriorityMedium:   45,
			models.PriorityHigh:     50,
			models.PriorityCritical: 60,
		}
		for priority, want := range cases {
			assert.InDelta(t, want, scoreVolunteer(0, 10, priority, noSkills), 1e-9, "priority %s", priority)
		}
	})

	t.Run("never negative", func(t *testing.T) {
		required := []models.EmergencyRequiredSkill{requiredSkill("first-aid", true)}
		skills := matchSkills(required, nil)

		// Edge of radius, missing mandatory skill, low priority
		score := scoreVolunteer(10, 10, models.PriorityLow, skills)
		assert.Equal(t, 0.0, score)
	})

	t.Run("never above 100", func(t *testing.T) {
		required := []models.EmergencyRequiredSkill{
			requiredSkill("first-aid", true),
			requiredSkill("radio", false),
		}
		skills := matchSkills(required, []string{"first-aid", "radio"})

		score := scoreVolunteer(0, 10, models.PriorityCritical, skills)
		assert.LessOrEqual(t, score, 100.0)
		assert.InDelta(t, 100.0, score, 1e-9) // 40 + 25 + 15 + 20 = 100
	})

	t.Run("beyond radius contributes no distance points", func(t *testing.T) {
		score := scoreVolunteer(15, 10, models.PriorityCritical, noSkills)
		assert.InDelta(t, 20.0, score, 1e-9)
	})
}

func TestScoreEmergencyForVolunteer(t *testing.T) {
	noSkills := matchSkills(nil, nil)

	t.Run("flat skill bonus when nothing is required", func(t *testing.T) {
		score, eligible := scoreEmergencyForVolunteer(0, 10, models.PriorityLow, noSkills)
		require.True(t, eligible)
		assert.InDelta(t, 55.0, score, 1e-9) // 30 + 10 + 15
	})

	t.Run("skill ratio scales the bonus", func(t *testing.T) {
		required := []models.EmergencyRequiredSkill{
			requiredSkill("first-aid", true),
			requiredSkill("radio", false),
		}
		skills := matchSkills(required, []string{"first-aid"})

		score, eligible := scoreEmergencyForVolunteer(0, 10, models.PriorityLow, skills)
		require.True(t, eligible)
		assert.InDelta(t, 55.0, score, 1e-9) // 30 + 10 + 15 (1 of 2)
	})

	t.Run("skill-gated emergency excluded with zero matches", func(t *testing.T) {
		required := []models.EmergencyRequiredSkill{requiredSkill("first-aid", true)}
		skills := matchSkills(required, nil)

		_, eligible := scoreEmergencyForVolunteer(0, 10, models.PriorityCritical, skills)
		assert.False(t, eligible)
	})

	t.Run("priority bonus per level", func(t *testing.T) {
		cases := map[models.PriorityLevel]float64{
			models.PriorityLow:      10,
			models.PriorityMedium:   20,
			models.PriorityHigh:     30,
			models.PriorityCritical: 40,
		}
		for priority, want := range cases {
			score, eligible := scoreEmergencyForVolunteer(10, 10, priority, noSkills)
			require.True(t, eligible)
			assert.InDelta(t, want+volSkillFlatBonus, score, 1e-9, "priority %s", priority)
		}
	})

	t.Run("capped at 100", func(t *testing.T) {
		score, eligible := scoreEmergencyForVolunteer(0, 10, models.PriorityCritical, noSkills)
		require.True(t, eligible)
		assert.LessOrEqual(t, score, 100.0)
	})
}
