package httpHandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"energy-server/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperrors.Validation("Quantity must be positive."), http.StatusBadRequest, "Quantity must be positive."},
		{"auth", apperrors.Auth("Invalid email or password."), http.StatusUnauthorized, "Invalid email or password."},
		{"forbidden", apperrors.Forbidden("Invalid token."), http.StatusForbidden, "Invalid token."},
		{"conflict", apperrors.Conflict("Email already exists."), http.StatusConflict, "Email already exists."},
		{"not found", apperrors.NotFound("Alert not found or not authorized."), http.StatusNotFound, "Alert not found or not authorized."},
		{"persistence", apperrors.Persistence("Error creating user.", errors.New("connection refused")), http.StatusInternalServerError, "Error creating user."},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "Internal server error."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
