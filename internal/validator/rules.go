package validator

import (
	"log"

	"crisislink_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules installs the domain validation tags. The built-in
// "latitude"/"longitude" tags cover coordinate ranges.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Startup misconfiguration, do not boot
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-priority", validatePriority)
	mustRegister("is-skill-category", validateSkillCategory)
	mustRegister("is-availability", validateAvailability)
}

// Empty values pass: 'required' owns presence checks.

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.UserRole(value) {
	case models.UserRoleVolunteer, models.UserRoleAuthority, models.UserRoleAdmin:
		return true
	default:
		return false
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PriorityLevel(value).Valid()
}

func validateSkillCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.SkillCategory(value) {
	case models.SkillCategoryMedical, models.SkillCategoryRescue, models.SkillCategoryLogistics,
		models.SkillCategoryTechnical, models.SkillCategoryCommunication, models.SkillCategoryOther:
		return true
	default:
		return false
	}
}

func validateAvailability(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.AvailabilityStatus(value) {
	case models.AvailabilityAvailable, models.AvailabilityBusy, models.AvailabilityOffline:
		return true
	default:
		return false
	}
}
