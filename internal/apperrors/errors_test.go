package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Remote("Failed to delete item. Please try again.", cause)

	assert.Equal(t, "Failed to delete item. Please try again.", err.Error())
	assert.Equal(t, cause, err.Cause())
	assert.NotContains(t, err.Error(), "pq")
}

func TestIsMatchesCodeAndMessage(t *testing.T) {
	err := fmt.Errorf("accept: %w", Conflict("This invitation has already been used"))

	assert.True(t, errors.Is(err, Conflict("This invitation has already been used")))
	assert.False(t, errors.Is(err, Conflict("This invitation has expired")))
	assert.False(t, errors.Is(err, Validation("This invitation has already been used")))
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "List not found", Message(NotFound("List not found"), "x"))
	assert.Equal(t, "An unexpected error occurred", Message(errors.New("boom"), "An unexpected error occurred"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeRemote, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
	assert.Equal(t, CodeInternal, CodeOf(errors.New("x")))
}
