package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindHTTPStatus(t *testing.T) {
	cases := map[ErrorKind]int{
		KindNotFound:          http.StatusNotFound,
		KindConflict:          http.StatusConflict,
		KindForbidden:         http.StatusForbidden,
		KindInvalidStatus:     http.StatusBadRequest,
		KindInvalidTransition: http.StatusBadRequest,
		KindValidation:        http.StatusBadRequest,
		KindUnauthorized:      http.StatusUnauthorized,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("open table: %w", Conflict("table %s already has an open session", "5"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestInvalidTransitionNamesPair(t *testing.T) {
	err := InvalidTransition("served", "ordered")
	assert.Contains(t, err.Error(), `"served"`)
	assert.Contains(t, err.Error(), `"ordered"`)
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause, "failed to save order")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save order: disk full", err.Error())
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", NotFound("table %s not found", "9"), http.StatusNotFound, "table 9 not found"},
		{"forbidden", Forbidden("invalid secret code"), http.StatusForbidden, "invalid secret code"},
		{"internal hides cause", Internal(errors.New("dsn leaked"), "failed to load"), http.StatusInternalServerError, "failed to load"},
		{"plain error", errors.New("raw"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondError(c, tc.err)

			require.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"status":false`)
			assert.Contains(t, w.Body.String(), tc.message)
			assert.NotContains(t, w.Body.String(), "dsn leaked")
		})
	}
}
