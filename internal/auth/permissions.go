package auth

import (
	"errors"

	"crisislink_backend/internal/models"
)

// Role permissions. Volunteers act on their own profile and assignments,
// authorities manage their own emergencies, admins moderate everything.
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		"users:read",
		"users:write",
		"users:block",
		"skills:verify",
		"emergencies:read",
		"emergencies:write",
		"assignments:write",
		"system:admin",
	},
	models.UserRoleAuthority: {
		"emergencies:read",
		"emergencies:write:own",
		"assignments:cancel:own",
		"matching:read:own",
	},
	models.UserRoleVolunteer: {
		"profile:write:self",
		"skills:claim:self",
		"assignments:respond:self",
		"emergencies:read:nearby",
	},
}

// HasPermission reports whether the role carries the permission.
func HasPermission(role models.UserRole, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CanPerformAction checks a permission against token claims.
func CanPerformAction(claims *Claims, permission string) bool {
	return HasPermission(claims.Role, permission)
}

// IsAdmin reports whether the claims belong to an administrator.
func IsAdmin(claims *Claims) bool {
	return claims.Role == models.UserRoleAdmin
}

// ValidateRole rejects unknown roles.
func ValidateRole(role models.UserRole) error {
	switch role {
	case models.UserRoleVolunteer, models.UserRoleAuthority, models.UserRoleAdmin:
		return nil
	default:
		return errors.New("invalid role")
	}
}
