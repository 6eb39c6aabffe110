package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-go/internal/config"
)

var testAuth = config.AuthConfig{JWTSecretKey: "secret", JWTExpiry: time.Hour, JWTIssuer: "social-go"}

func TestTokenRoundTrip(t *testing.T) {
	token, issued, err := GenerateToken("u1", "alice", testAuth)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), token, testAuth, NewMemoryBlacklist())
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID())
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, issued.ID, claims.ID)
}

func TestValidateTokenRejects(t *testing.T) {
	token, claims, err := GenerateToken("u1", "alice", testAuth)
	require.NoError(t, err)

	wrongKey := testAuth
	wrongKey.JWTSecretKey = "other"
	_, err = ValidateToken(context.Background(), token, wrongKey, nil)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := testAuth
	expired.JWTExpiry = -time.Minute
	old, _, err := GenerateToken("u1", "alice", expired)
	require.NoError(t, err)
	_, err = ValidateToken(context.Background(), old, testAuth, nil)
	require.ErrorIs(t, err, ErrInvalidToken)

	bl := NewMemoryBlacklist()
	require.NoError(t, bl.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))
	_, err = ValidateToken(context.Background(), token, testAuth, bl)
	require.ErrorIs(t, err, ErrRevokedToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("hunter22", hash))
	require.False(t, CheckPasswordHash("hunter23", hash))
}
