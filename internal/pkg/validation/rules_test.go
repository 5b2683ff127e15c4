package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringValidation(t *testing.T) {
	tests := []struct {
		name string
		v    *StringValidation
		want bool
	}{
		{"required empty", NewStringValidation("   "), false},
		{"optional empty", NewStringValidation("").WithRequired(false), true},
		{"too short", NewStringValidation("abc").WithMinLength(5), false},
		{"runes counted", NewStringValidation("çççç").WithMaxLength(4), true},
		{"too long", NewStringValidation("abcdef").WithMaxLength(5), false},
		{"pattern", NewStringValidation("usd").WithPattern(CompiledPatterns.Currency), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Validate())
		})
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("secret123"))
	assert.False(t, IsStrongPassword("short1"))
	assert.False(t, IsStrongPassword("onlyletters"))
	assert.False(t, IsStrongPassword("12345678"))
}

func TestRegisterCustomValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterCustomValidators(v))

	type payload struct {
		Password string `validate:"strongpassword"`
		Currency string `validate:"currency"`
	}
	assert.NoError(t, v.Struct(payload{Password: "abcd1234", Currency: "EUR"}))
	assert.Error(t, v.Struct(payload{Password: "abcd", Currency: "EUR"}))
	assert.Error(t, v.Struct(payload{Password: "abcd1234", Currency: "EURO"}))
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(5, 0, 10))
	assert.False(t, InRange(10.5, 0, 10))
	assert.True(t, InRange(int64(0), 0, 0))
}
