package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermanagement/internal/validation"
)

func TestGeneratePasskey(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		key, err := GeneratePasskey(6)
		require.NoError(t, err)
		assert.Len(t, key, 6)
		assert.True(t, strings.ContainsAny(key, lowerChars), key)
		assert.True(t, strings.ContainsAny(key, upperChars), key)
		seen[key] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}

func TestGeneratePasskeyTooShort(t *testing.T) {
	_, err := GeneratePasskey(1)
	assert.Error(t, err)
}

func TestDerivedPasswordPassesPolicy(t *testing.T) {
	for i := 0; i < 50; i++ {
		key, err := GeneratePasskey(6)
		require.NoError(t, err)
		password := DerivePassword(key)
		assert.True(t, strings.HasSuffix(password, "123"))
		assert.True(t, validation.Password(password), password)
	}
}
