package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) (accessKey, refreshKey []byte) {
	t.Helper()
	return []byte("0123456789abcdef0123456789abcdef"), []byte("fedcba9876543210fedcba9876543210")
}

func TestNewPasetoService_RejectsShortKeys(t *testing.T) {
	_, refreshKey := testKeys(t)

	_, err := NewPasetoService([]byte("too-short"), refreshKey)
	require.Error(t, err)

	_, err = NewPasetoService(refreshKey, []byte("too-short"))
	require.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	accessKey, refreshKey := testKeys(t)
	svc, err := NewPasetoService(accessKey, refreshKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateAccessToken(userID, "alice@example.com", "alice", "Alice Liddell", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "Alice Liddell", claims.FullName)
	require.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestAccessToken_Expired(t *testing.T) {
	accessKey, refreshKey := testKeys(t)
	svc, err := NewPasetoService(accessKey, refreshKey)
	require.NoError(t, err)

	token, err := svc.CreateAccessToken(uuid.New(), "alice@example.com", "alice", "Alice Liddell", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestAccessToken_Garbage(t *testing.T) {
	accessKey, refreshKey := testKeys(t)
	svc, err := NewPasetoService(accessKey, refreshKey)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken("v4.local.not-a-real-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	accessKey, refreshKey := testKeys(t)
	svc, err := NewPasetoService(accessKey, refreshKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateRefreshToken(userID, time.Hour)
	require.NoError(t, err)

	got, err := svc.VerifyRefreshToken(token)
	require.NoError(t, err)
	require.Equal(t, userID, got)
}

func TestRefreshToken_Expired(t *testing.T) {
	accessKey, refreshKey := testKeys(t)
	svc, err := NewPasetoService(accessKey, refreshKey)
	require.NoError(t, err)

	token, err := svc.CreateRefreshToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

// An access token must never be accepted on the refresh path and vice versa.
func TestTokenKinds_DoNotCross(t *testing.T) {
	accessKey, refreshKey := testKeys(t)
	svc, err := NewPasetoService(accessKey, refreshKey)
	require.NoError(t, err)

	userID := uuid.New()

	accessToken, err := svc.CreateAccessToken(userID, "alice@example.com", "alice", "Alice Liddell", time.Minute)
	require.NoError(t, err)
	_, err = svc.VerifyRefreshToken(accessToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	refreshToken, err := svc.CreateRefreshToken(userID, time.Hour)
	require.NoError(t, err)
	_, err = svc.VerifyAccessToken(refreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}
