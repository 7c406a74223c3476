package service

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

func newTokenService(clock clockwork.Clock) *TokenService {
	return NewTokenService(TokenConfig{
		Secret:           "test-secret",
		Issuer:           "student-portal-api",
		Expiration:       2 * time.Hour,
		RefreshThreshold: 30 * time.Minute,
	}, clock)
}

func testUser() *models.User {
	return &models.User{
		ID:      "u1",
		Name:    "Ana Souza",
		Email:   "ana@example.com",
		Role:    models.RoleStudent,
		Enabled: true,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := newTokenService(clock)

	token, expiresAt, err := svc.GenerateToken(testUser())
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UTC().Add(2*time.Hour), expiresAt)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "Ana Souza", claims.Name)
	assert.Equal(t, "ana@example.com", claims.Subject)
	assert.Equal(t, "student-portal-api", claims.Issuer)
}

func TestTokenExpires(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := newTokenService(clock)

	token, _, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	clock.Advance(2*time.Hour + time.Minute)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestTamperedTokenRejected(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := newTokenService(clock)

	token, _, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.ValidateToken(tampered)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := newTokenService(clock)
	other := NewTokenService(TokenConfig{
		Secret:     "other-secret",
		Issuer:     "student-portal-api",
		Expiration: 2 * time.Hour,
	}, clock)

	token, _, err := other.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestWrongIssuerRejected(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := newTokenService(clock)
	other := NewTokenService(TokenConfig{
		Secret:     "test-secret",
		Issuer:     "someone-else",
		Expiration: 2 * time.Hour,
	}, clock)

	token, _, err := other.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestShouldRefresh(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := newTokenService(clock)

	token, _, err := svc.GenerateToken(testUser())
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.False(t, svc.ShouldRefresh(claims), "fresh token needs no refresh")

	clock.Advance(100 * time.Minute)
	assert.True(t, svc.ShouldRefresh(claims), "inside the refresh window")

	clock.Advance(30 * time.Minute)
	assert.False(t, svc.ShouldRefresh(claims), "expired token is not refreshable")
}
