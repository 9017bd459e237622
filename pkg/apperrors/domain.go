package apperrors

import (
	"net/http"
)

// Factories and predefined variables for domain errors shared across
// services.

// ErrNotFound converts a repository not-found error into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict is the general conflict factory.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation rejects an operation the current state does not allow.
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrStateConflict names the conflicting state on an invalid transition.
// Distinct from validation failures: the payload was fine, the entity was not.
func ErrStateConflict(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// --- Predefined variables for frequent static errors ---

var ErrInvalidUserRole = New(
	CodeInvalidOperation,
	"business_logic",
	"Invalid user role for this operation",
	http.StatusBadRequest,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrCannotModifySelf = New(
	CodeForbidden,
	"business_logic",
	"Operation on self is not allowed",
	http.StatusForbidden,
)

var ErrAccountInactive = New(
	CodeForbidden,
	"auth",
	"Account is deactivated",
	http.StatusForbidden,
)

// --- Matching & geo ---

var ErrInvalidCoordinates = New(
	CodeValidationFailed,
	"geo",
	"Coordinates are out of range",
	http.StatusBadRequest,
)

var ErrNoCoordinates = New(
	CodeInvalidOperation,
	"matching",
	"Location is required for geo matching",
	http.StatusBadRequest,
)

// --- Assignments ---

var ErrAssignmentAlreadyExists = New(
	CodeAlreadyExists,
	"assignment",
	"Volunteer already has an assignment for this emergency",
	http.StatusConflict,
)

var ErrNotAssignmentOwner = New(
	CodeForbidden,
	"assignment",
	"Volunteers may only act on their own assignments",
	http.StatusForbidden,
)

// --- Emergencies ---

var ErrNotEmergencyOwner = New(
	CodeForbidden,
	"emergency",
	"Authorities may only manage their own emergencies",
	http.StatusForbidden,
)

var ErrEmergencyNotOpen = New(
	CodeInvalidStatus,
	"emergency",
	"Emergency is not open",
	http.StatusConflict,
)

var ErrEscalationCapReached = New(
	CodeLimitExceeded,
	"emergency",
	"Automatic escalation limit reached, manual handling required",
	http.StatusConflict,
)

// --- Skills ---

var ErrSkillNotPending = New(
	CodeInvalidStatus,
	"skill",
	"Skill verification is not pending",
	http.StatusConflict,
)

var ErrSkillAlreadyClaimed = New(
	CodeAlreadyExists,
	"skill",
	"Skill is already claimed by this volunteer",
	http.StatusConflict,
)
