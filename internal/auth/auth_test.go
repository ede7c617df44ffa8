package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyTokenRoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("secret")

	token, err := a.IssueToken(42, time.Minute)
	require.NoError(t, err)

	userID, err := a.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := NewJWTAuthenticator("secret-a").IssueToken(42, time.Minute)
	require.NoError(t, err)

	_, err = NewJWTAuthenticator("secret-b").VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	a := NewJWTAuthenticator("secret")
	token, err := a.IssueToken(42, -time.Minute)
	require.NoError(t, err)

	_, err = a.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	a := NewJWTAuthenticator("secret")

	_, err := a.VerifyToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenNonNumericSubject(t *testing.T) {
	secret := []byte("secret")
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	token, err := raw.SignedString(secret)
	require.NoError(t, err)

	_, err = NewJWTAuthenticator("secret").VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
