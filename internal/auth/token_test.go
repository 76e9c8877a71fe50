package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_roundTrip(t *testing.T) {
	codec := NewTokenCodec("test-signing-secret", TokenTTL)

	token, err := codec.Issue("admin", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", identity.Subject)
	assert.Equal(t, RoleAdmin, identity.Role)
}

func TestTokenCodec_expiry(t *testing.T) {
	issuedAt := time.Now()
	codec := NewTokenCodec("test-signing-secret", time.Hour)
	codec.NowFunc = func() time.Time { return issuedAt }

	token, err := codec.Issue("admin", RoleAdmin)
	require.NoError(t, err)

	// valid just before expiry
	codec.NowFunc = func() time.Time { return issuedAt.Add(time.Hour - time.Second) }
	_, err = codec.Verify(token)
	require.NoError(t, err)

	// invalid just after
	codec.NowFunc = func() time.Time { return issuedAt.Add(time.Hour + time.Second) }
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_tamper(t *testing.T) {
	codec := NewTokenCodec("test-signing-secret", TokenTTL)

	token, err := codec.Issue("admin", RoleAdmin)
	require.NoError(t, err)

	// flipping any single character must invalidate the token
	for i := 0; i < len(token); i++ {
		tampered := []byte(token)
		if tampered[i] == 'x' {
			tampered[i] = 'y'
		} else {
			tampered[i] = 'x'
		}
		_, err := codec.Verify(string(tampered))
		assert.ErrorIs(t, err, ErrInvalidToken, "flipped char at %d", i)
	}
}

func TestTokenCodec_wrongSecret(t *testing.T) {
	token, err := NewTokenCodec("secret-one", TokenTTL).Issue("admin", RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenCodec("secret-two", TokenTTL).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_garbageInput(t *testing.T) {
	codec := NewTokenCodec("test-signing-secret", TokenTTL)

	for _, tokenString := range []string{"", "abc", "a.b.c", "Bearer something"} {
		_, err := codec.Verify(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken, "input: %q", tokenString)
	}
}

func TestTokenCodec_noSecret(t *testing.T) {
	codec := NewTokenCodec("", TokenTTL)

	_, err := codec.Issue("admin", RoleAdmin)
	assert.ErrorIs(t, err, ErrNoSigningSecret)

	_, err = codec.Verify("whatever")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
