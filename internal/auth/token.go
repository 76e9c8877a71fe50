package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is fixed: after expiry a new login is required, there is no
// refresh or rotation.
const TokenTTL = 24 * time.Hour

const RoleAdmin = "admin"

var (
	// ErrInvalidToken covers malformed, tampered and expired tokens alike,
	// so callers can not probe which check failed.
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrNoSigningSecret = errors.New("token signing secret not set")
)

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	Subject string
	Role    string
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 signed tokens. Tokens are
// self-contained, there is no server side session or revocation list.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration

	// ability to inject the clock for unit testing
	NowFunc func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret:  []byte(secret),
		ttl:     ttl,
		NowFunc: time.Now,
	}
}

func (c *TokenCodec) Issue(subject, role string) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrNoSigningSecret
	}

	now := c.NowFunc()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *TokenCodec) Verify(tokenString string) (Identity, error) {
	if len(c.secret) == 0 {
		return Identity{}, ErrInvalidToken
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.NowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	return Identity{Subject: claims.Subject, Role: claims.Role}, nil
}
