package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservationCode(t *testing.T) {
	code := NewReservationCode(7, 42)
	assert.True(t, strings.HasPrefix(code, "R7"))
	assert.True(t, strings.HasSuffix(code, "42"))
	assert.Greater(t, len(code), len("R742"))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("door-password", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "door-password"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestNewAccessToken(t *testing.T) {
	const secret = "test-secret"
	tok, err := NewAccessToken(secret, 99, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	parsed, err := jwt.Parse(tok.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(99), claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}
