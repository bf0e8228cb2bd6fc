package authutils

import (
	"context"
	"testing"
	"time"

	"story-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, userID uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	claims := models.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	v, err := NewJWTVerifier("", nil)
	assert.Nil(t, v)
	assert.Error(t, err)
}

func TestVerifyToken(t *testing.T) {
	v, err := NewJWTVerifier(testSecret, nil)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		userID := uuid.New()
		tokenString := signToken(t, testSecret, userID, time.Now().Add(time.Hour))

		claims, err := v.VerifyToken(ctx, tokenString)

		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
	})

	t.Run("expired token", func(t *testing.T) {
		tokenString := signToken(t, testSecret, uuid.New(), time.Now().Add(-time.Hour))

		claims, err := v.VerifyToken(ctx, tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("wrong signature", func(t *testing.T) {
		tokenString := signToken(t, "another-secret", uuid.New(), time.Now().Add(time.Hour))

		claims, err := v.VerifyToken(ctx, tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := v.VerifyToken(ctx, "not.a.token")

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})

	t.Run("missing user id", func(t *testing.T) {
		tokenString := signToken(t, testSecret, uuid.Nil, time.Now().Add(time.Hour))

		claims, err := v.VerifyToken(ctx, tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})
}
