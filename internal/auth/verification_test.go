package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mataleao/backend/pkg/utils"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
		}
		seen[code] = true
	}
	// 50 draws from a million values collide with negligible probability.
	assert.Greater(t, len(seen), 45)
}

func TestCodeHashRoundtrip(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)

	hash, err := utils.HashSecret(code)
	require.NoError(t, err)
	assert.NotEqual(t, code, hash)

	assert.True(t, utils.CheckSecret(code, hash))
	if code != "000000" {
		assert.False(t, utils.CheckSecret("000000", hash))
	}
}
