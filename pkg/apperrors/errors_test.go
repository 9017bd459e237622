package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("record not found")
	appErr := ErrNotFound(cause)

	assert.True(t, errors.Is(appErr, cause))
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode)
	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	inner := ErrStateConflict("assignment", "Assignment changed concurrently, retry")
	wrapped := fmt.Errorf("accept failed: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidStatus, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.HTTPCode)
	assert.Equal(t, "assignment", appErr.Domain)
}

func TestAsAppErrorPlainError(t *testing.T) {
	_, ok := AsAppError(errors.New("connection refused"))
	assert.False(t, ok)
}

func TestMarshalJSONHidesInternals(t *testing.T) {
	appErr := ErrConflict(errors.New("pq: duplicate key"), "assignment", "Volunteer already assigned")
	appErr.Details = map[string]string{"assignment_id": "a-1"}

	raw, err := json.Marshal(appErr)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "CONFLICT", decoded["code"])
	assert.Equal(t, "Volunteer already assigned", decoded["message"])
	assert.NotContains(t, decoded, "HTTPCode")
	assert.NotContains(t, string(raw), "duplicate key")
}

func TestPredefinedErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"invalid role", ErrInvalidUserRole, http.StatusBadRequest},
		{"insufficient permissions", ErrInsufficientPermissions, http.StatusForbidden},
		{"cannot modify self", ErrCannotModifySelf, http.StatusForbidden},
		{"account inactive", ErrAccountInactive, http.StatusForbidden},
		{"invalid coordinates", ErrInvalidCoordinates, http.StatusBadRequest},
		{"no coordinates", ErrNoCoordinates, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.HTTPCode)
		})
	}
}
