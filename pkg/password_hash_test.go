package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckPasswordHash(t *testing.T) {
	// min cost, hashing with the production cost takes seconds
	hashBytes, err := bcrypt.GenerateFromPassword([]byte("s3cr3t"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashBytes)

	assert.True(t, CheckPasswordHash("s3cr3t", hash))
	assert.False(t, CheckPasswordHash("s3cr3t ", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("s3cr3t", "not-a-bcrypt-hash"))
}
