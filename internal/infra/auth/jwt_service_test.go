package auth

import (
	"testing"
	"time"

	"lessonsync/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.SecretKey.Access = secret

	return cfg
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("test_access_secret_key_very_long_for_testing"))
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(userID, []string{"admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{"admin"}, claims.Roles)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(newTestConfig(""))
	assert.Error(t, err)
}

func TestJWTService_RejectsInvalidTokens(t *testing.T) {
	svc, err := NewJWTService(newTestConfig("secret-one"))
	require.NoError(t, err)
	other, err := NewJWTService(newTestConfig("secret-two"))
	require.NoError(t, err)

	foreign, err := other.GenerateToken(uuid.New(), nil)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.ValidateToken(foreign)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expiring := svc.(*jwtService)
		expiring.now = func() time.Time { return time.Now().Add(-time.Hour) }
		stale, err := expiring.GenerateToken(uuid.New(), nil)
		require.NoError(t, err)
		expiring.now = time.Now

		_, err = svc.ValidateToken(stale)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"uid": uuid.NewString(),
			"iss": tokenIssuer,
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(unsigned)
		assert.Error(t, err)
	})
}
