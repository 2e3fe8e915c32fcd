package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	assert.NoError(t, ComparePassword(hash, "secret1"))
	assert.Error(t, ComparePassword(hash, "secret2"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"secret1", true},
		{"a1b2c3", true},
		{"pässw0rd", true},
		{"abc12", false},    // too short
		{"abcdef", false},   // no digit
		{"123456", false},   // no letter
		{"", false},
		{"!@#$%^1", false}, // digit but no letter
	}
	for _, tc := range tests {
		t.Run(tc.password, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidatePasswordStrength(tc.password))
		})
	}
}
