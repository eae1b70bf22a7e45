package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("secret-key-that-is-long-enough", "mentorconnect", 1)

	token, err := tm.GenerateToken("user-1", "a@example.com", "mentor", true)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "mentor", claims.Role)
	assert.True(t, claims.EmailVerified)
}

func TestValidateWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-one", "mentorconnect", 1)
	verifier := NewTokenManager("secret-two", "mentorconnect", 1)

	token, err := issuer.GenerateToken("user-1", "", "", false)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongIssuer(t *testing.T) {
	issuer := NewTokenManager("secret", "someone-else", 1)
	verifier := NewTokenManager("secret", "mentorconnect", 1)

	token, err := issuer.GenerateToken("user-1", "", "", false)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	secret := []byte("secret")
	claims := PrincipalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "mentorconnect",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "mentorconnect", 1).ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateMissingSubject(t *testing.T) {
	tm := NewTokenManager("secret", "", 1)
	token, err := tm.GenerateToken("", "", "", false)
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaim)
}

func TestTimingSafeCompare(t *testing.T) {
	assert.True(t, TimingSafeCompare("abc", "abc"))
	assert.False(t, TimingSafeCompare("abc", "abd"))
}
