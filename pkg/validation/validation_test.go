package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactForm struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10"`
	Status  string `form:"status" validate:"omitempty,oneof=draft published"`
	Count   int    `json:"-" validate:"min=0"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(contactForm{Name: "Ada", Email: "ada@example.com", Message: "Hello there, MediaMind!"})
	assert.NoError(t, err)
}

func TestStruct_Errors(t *testing.T) {
	err := Struct(contactForm{
		Name:    strings.Repeat("n", 256),
		Email:   "not-an-email",
		Message: "short",
		Status:  "archived",
	})
	require.Error(t, err)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, Errors{
		"name":    "The name field must not be greater than 255 characters.",
		"email":   "The email field must be a valid email address.",
		"message": "The message field must be at least 10 characters.",
		"status":  "The selected status is invalid.",
	}, verrs)
	assert.Contains(t, err.Error(), "The email field must be a valid email address.")
}

func TestStruct_Required(t *testing.T) {
	err := Struct(contactForm{})
	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "The name field is required.", verrs["name"])
	assert.Equal(t, "The email field is required.", verrs["email"])
	assert.Equal(t, "The message field is required.", verrs["message"])
	assert.Len(t, verrs, 3)
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct("nope")
	require.Error(t, err)
	var verrs Errors
	assert.False(t, errors.As(err, &verrs))
}
