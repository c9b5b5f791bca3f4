package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

// newFixedTimeService builds a service whose clock starts at the given time
// and can be advanced by repointing the returned *time.Time.
func newFixedTimeService(t *testing.T, now *time.Time) *hmacJWTService {
	t.Helper()

	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	})
	require.NoError(t, err)

	impl := svc.(*hmacJWTService)
	impl.timeFunc = func() time.Time { return *now }
	return impl
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	t.Run("rejects short secret", func(t *testing.T) {
		t.Parallel()
		_, err := NewJWTService(config.AuthConfig{
			JWTSecret:                   "too-short",
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
		})
		assert.Error(t, err)
	})

	t.Run("accepts valid config", func(t *testing.T) {
		t.Parallel()
		svc, err := NewJWTService(config.AuthConfig{
			JWTSecret:                   testSecret,
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	svc := newFixedTimeService(t, &now)

	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Expired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedTimeService(t, &now)

	token, err := svc.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	// Past the 60m lifetime plus the 2m clock skew allowance.
	now = now.Add(63 * time.Minute)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSignature(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedTimeService(t, &now)

	other := newFixedTimeService(t, &now)
	other.signingKey = []byte("a-completely-different-32-char-key!!")

	token, err := other.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newFixedTimeService(t, &now)

	_, err := svc.ValidateToken(context.Background(), "not-a-jwt-at-all")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	svc := newFixedTimeService(t, &now)

	refresh, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	t.Run("validates while fresh", func(t *testing.T) {
		claims, err := svc.ValidateRefreshToken(ctx, refresh)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "refresh", claims.TokenType)
	})

	t.Run("outlives the access token lifetime", func(t *testing.T) {
		later := now.Add(2 * time.Hour)
		svc.timeFunc = func() time.Time { return later }
		defer func() { svc.timeFunc = func() time.Time { return now } }()

		_, err := svc.ValidateRefreshToken(ctx, refresh)
		assert.NoError(t, err)
	})

	t.Run("expires after its own lifetime", func(t *testing.T) {
		later := now.Add(1443 * time.Minute)
		svc.timeFunc = func() time.Time { return later }
		defer func() { svc.timeFunc = func() time.Time { return now } }()

		_, err := svc.ValidateRefreshToken(ctx, refresh)
		assert.ErrorIs(t, err, ErrExpiredRefreshToken)
	})
}

func TestTokenTypeEnforcement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	svc := newFixedTimeService(t, &now)

	access, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, refresh)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		_, err := svc.ValidateRefreshToken(ctx, access)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})
}
