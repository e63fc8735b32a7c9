package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,is-user-role"`
}

type tourInput struct {
	Difficulty    string   `json:"difficulty" validate:"required,is-difficulty"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	PriceDiscount *float64 `json:"priceDiscount" validate:"omitempty,ltfield=Price"`
	Center        string   `json:"center" validate:"omitempty,latlng"`
}

func TestValidate_FieldNamesFromJSONTags(t *testing.T) {
	t.Parallel()
	v := New()

	err := v.Validate(&signupInput{
		Name:            "",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
		Role:            "superuser",
	})

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "This field is required", vErr.Errors["name"])
	assert.Equal(t, "Please provide a valid email", vErr.Errors["email"])
	assert.Contains(t, vErr.Errors["password"], "at least 8")
	assert.Equal(t, "Passwords are not the same!", vErr.Errors["passwordConfirm"])
	assert.Contains(t, vErr.Errors["role"], "lead-guide")
}

func TestValidate_CustomRules(t *testing.T) {
	t.Parallel()
	v := New()
	discount := 500.0

	tests := []struct {
		name      string
		input     tourInput
		wantField string
	}{
		{name: "valid", input: tourInput{Difficulty: "easy", Price: 400, Center: "34.11,-118.11"}},
		{name: "bad difficulty", input: tourInput{Difficulty: "extreme", Price: 400}, wantField: "difficulty"},
		{name: "discount above price", input: tourInput{Difficulty: "easy", Price: 400, PriceDiscount: &discount}, wantField: "priceDiscount"},
		{name: "bad latlng", input: tourInput{Difficulty: "easy", Price: 400, Center: "north"}, wantField: "center"},
		{name: "latlng out of range", input: tourInput{Difficulty: "easy", Price: 400, Center: "134,10"}, wantField: "center"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Contains(t, vErr.Errors, tt.wantField)
		})
	}
}

func TestParseLatLng(t *testing.T) {
	t.Parallel()

	lat, lng, ok := ParseLatLng("34.111745, -118.113491")
	assert.True(t, ok)
	assert.InDelta(t, 34.111745, lat, 1e-9)
	assert.InDelta(t, -118.113491, lng, 1e-9)

	_, _, ok = ParseLatLng("34.1")
	assert.False(t, ok)
}

func TestValidationError_StableMessage(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Errors: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "invalid input: a (one); b (two)", err.Error())
}
