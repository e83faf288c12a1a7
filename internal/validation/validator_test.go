package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
)

type signUp struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"required,min=8"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(signUp{Email: "nope", Password: "short"})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	assert.EqualError(t, err, "email must be a valid email address; password must be at least 8 characters")

	assert.NoError(t, v.Struct(signUp{Email: "a@b.co", Password: "long enough"}))
}

func TestVar(t *testing.T) {
	v := New()
	assert.True(t, v.Var("friend@example.com", "required,email"))
	assert.False(t, v.Var("", "required,email"))
}
