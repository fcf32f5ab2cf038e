package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "notaris-test",
		MaxRefreshCount:        2,
	})
}

func newTestSubject() Subject {
	return Subject{
		TenantID:    uuid.New(),
		TenantCode:  "ANTW01",
		UserID:      uuid.New(),
		Username:    "notaris.peeters",
		Role:        "notary",
		Permissions: []string{"dossier:read", "dossier:write", "invoice:issue"},
	}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "only-secret"})
	assert.Equal(t, svc.accessSecret, svc.refreshSecret)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()
	sub := newTestSubject()

	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sub.TenantID.String(), claims.TenantID)
	assert.Equal(t, sub.UserID.String(), claims.UserID)
	assert.Equal(t, "notary", claims.Role)
	assert.Equal(t, "ANTW01", claims.TenantCode)
	assert.True(t, claims.HasPermission("invoice:issue"))
	assert.False(t, claims.HasPermission("user:manage"))
	assert.True(t, claims.HasAnyPermission("user:manage", "dossier:read"))

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, refresh.Permissions)
	assert.Empty(t, refresh.Role)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestValidateToken_Failures(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token used as access token", func(t *testing.T) {
		// same secret on both sides so only the type check can fail
		same := NewJWTService(config.JWTConfig{Secret: "shared-secret", Issuer: "notaris-test",
			AccessTokenExpiration: time.Minute, RefreshTokenExpiration: time.Hour})
		p, err := same.GenerateTokenPair(newTestSubject())
		require.NoError(t, err)
		_, err = same.ValidateAccessToken(p.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret", Issuer: "notaris-test"})
		_, err := other.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "elsewhere"})
		_, err := other.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		short := NewJWTService(config.JWTConfig{Secret: "s", Issuer: "notaris-test",
			AccessTokenExpiration: -time.Minute, RefreshTokenExpiration: time.Hour})
		p, err := short.GenerateTokenPair(newTestSubject())
		require.NoError(t, err)
		_, err = short.ValidateAccessToken(p.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestRefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()
	sub := newTestSubject()
	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)

	prev, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	sub.Role = "clerk"
	sub.Permissions = []string{"dossier:read"}
	next, err := svc.RefreshTokenPair(prev, sub)
	require.NoError(t, err)

	access, err := svc.ValidateAccessToken(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "clerk", access.Role)

	second, err := svc.ValidateRefreshToken(next.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, second.RefreshCount)

	third, err := svc.RefreshTokenPair(second, sub)
	require.NoError(t, err)
	last, err := svc.ValidateRefreshToken(third.RefreshToken)
	require.NoError(t, err)

	_, err = svc.RefreshTokenPair(last, sub)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestClaims_Accessors(t *testing.T) {
	id := uuid.New()
	c := &Claims{TenantID: id.String(), UserID: "bad"}

	got, err := c.GetTenantUUID()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = c.GetUserUUID()
	assert.Error(t, err)
	assert.Zero(t, c.GetRemainingTTL())
}
