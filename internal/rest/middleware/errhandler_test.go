package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performWithError(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/boom", func(c *gin.Context) {
		c.Error(err)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name: "not found",
			err: ierr.NewError("record not found").
				WithHint("Record not found").
				Mark(ierr.ErrNotFound),
			status: http.StatusNotFound,
		},
		{
			name: "version conflict",
			err: ierr.NewError("version mismatch").
				WithHint("Record was modified by someone else").
				Mark(ierr.ErrVersionConflict),
			status: http.StatusConflict,
		},
		{
			name: "validation",
			err: ierr.NewError("bad payload").
				WithHint("One or more fields are invalid").
				Mark(ierr.ErrValidation),
			status: http.StatusBadRequest,
		},
		{
			name: "permission denied",
			err: ierr.NewError("no grant").
				WithHint("You do not have permission to perform this action").
				Mark(ierr.ErrPermissionDenied),
			status: http.StatusForbidden,
		},
		{
			name: "invalid transition",
			err: ierr.NewError("bad transition").
				WithHint("A draft record cannot become approved").
				Mark(ierr.ErrInvalidTransition),
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := performWithError(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error.Display)
		})
	}
}

func TestErrorHandlerUsesHintAsDisplayMessage(t *testing.T) {
	err := ierr.NewError("internal detail the client must not see").
		WithHint("Record was modified by someone else").
		Mark(ierr.ErrVersionConflict)

	_, body := performWithError(t, err)
	assert.Equal(t, "Record was modified by someone else", body.Error.Display)
	assert.NotContains(t, body.Error.Display, "internal detail")
}

func TestErrorHandlerExposesReportableDetails(t *testing.T) {
	err := ierr.NewError("version mismatch").
		WithHint("Record was modified by someone else").
		WithReportableDetails(map[string]any{
			"current_version":  float64(4),
			"expected_version": float64(2),
		}).
		Mark(ierr.ErrVersionConflict)

	_, body := performWithError(t, err)
	assert.Equal(t, float64(4), body.Error.Details["current_version"])
	assert.Equal(t, float64(2), body.Error.Details["expected_version"])
}

func TestErrorHandlerUnknownErrorIs500(t *testing.T) {
	w, body := performWithError(t, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", body.Error.Display)
}
