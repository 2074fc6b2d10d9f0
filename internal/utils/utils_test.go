package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "jane@example.com", "ADMIN", 15)
	require.NoError(t, err)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)

	_, err = ParseAccessToken("other", tok.Token)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "a@b.c", "CUSTOMER", -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", tok.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessTokenRejectsNone(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", raw)
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter2"))
	assert.False(t, VerifyPassword(h, "hunter3"))
}

func TestPasswordEdgeCases(t *testing.T) {
	assert.False(t, VerifyPassword("", ""))

	h, err := HashPassword("hunter2", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
