package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r!secret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r!secret", hash)

	assert.True(t, CompareHashAndPassword(hash, "Sup3r!secret"))
	assert.False(t, CompareHashAndPassword(hash, "sup3r!secret"))
	assert.False(t, CompareHashAndPassword(hash, ""))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
		failures int
	}{
		{"valid", "Abcdef1!", true, 0},
		{"short lowercase only", "abc", false, 4},
		{"missing special", "Abcdefg1", false, 1},
		{"missing digit", "Abcdefg!", false, 1},
		{"missing upper", "abcdefg1!", false, 1},
		{"missing lower", "ABCDEFG1!", false, 1},
		{"empty", "", false, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidatePasswordStrength(tt.password)
			assert.Equal(t, tt.valid, res.IsValid)
			assert.Len(t, res.Errors, tt.failures)
		})
	}
}

func TestValidatePasswordStrengthMessages(t *testing.T) {
	res := ValidatePasswordStrength("abc")
	require.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "Password must be at least 8 characters long")
	assert.Contains(t, res.Errors, "Password must contain at least one uppercase letter")
	assert.Contains(t, res.Errors, "Password must contain at least one number")
	assert.Contains(t, res.Errors, "Password must contain at least one special character")
	assert.NotContains(t, res.Errors, "Password must contain at least one lowercase letter")
}
