package pkg

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGenerateRandomString(t *testing.T) {
	seen := make(map[string]bool)
	for i := 1; i <= 8; i++ {
		s, err := GenerateRandomString(i * 5)
		require.NoError(t, err)
		require.NotEmpty(t, s)

		decoded, err := base64.URLEncoding.DecodeString(s)
		require.NoError(t, err)
		assert.Len(t, decoded, i*5)

		assert.False(t, seen[s], "generated strings should not repeat")
		seen[s] = true
	}
}
