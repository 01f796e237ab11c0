package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, token, secret string) (*Claims, error) {
	t.Helper()
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return claims, err
}

func TestGenerateToken(t *testing.T) {
	svc := NewTokenService("secret", "meter-trace", time.Minute)

	token, err := svc.GenerateToken("run-1")
	require.NoError(t, err)

	claims, err := parse(t, token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "run-1", claims.RunID)
	assert.Equal(t, "run-1", claims.Subject)
	assert.Equal(t, "meter-trace", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestGenerateTokenDefaultExpiry(t *testing.T) {
	token, err := NewTokenService("secret", "", 0).GenerateToken("run-1")
	require.NoError(t, err)

	claims, err := parse(t, token, "secret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenSignedWithSecret(t *testing.T) {
	token, err := NewTokenService("secret", "", time.Minute).GenerateToken("run-1")
	require.NoError(t, err)

	_, err = parse(t, token, "other")
	assert.Error(t, err)
}

func TestTokenRequiresInputs(t *testing.T) {
	_, err := NewTokenService("secret", "", 0).GenerateToken("")
	assert.Error(t, err)

	_, err = NewTokenService("", "", 0).GenerateToken("run-1")
	assert.Error(t, err)
}
