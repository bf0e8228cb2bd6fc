package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAuthMiddleware(t *testing.T) {
	validUserID := uuid.New()

	verifier := func(ctx context.Context, tokenString string) (*models.Claims, error) {
		switch tokenString {
		case "valid-token":
			return &models.Claims{UserID: validUserID}, nil
		case "expired-token":
			return nil, models.ErrTokenExpired
		case "malformed-token":
			return nil, models.ErrTokenMalformed
		default:
			return nil, models.ErrTokenInvalid
		}
	}

	var gotUserID uuid.UUID
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = models.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := AuthMiddleware(verifier, zap.NewNop())(next)

	run := func(authHeader string) *httptest.ResponseRecorder {
		gotUserID, gotOK = uuid.Nil, false
		req := httptest.NewRequest(http.MethodGet, "/stories", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token puts user id into context", func(t *testing.T) {
		rec := run("Bearer valid-token")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gotOK)
		assert.Equal(t, validUserID, gotUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := run("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, gotOK)
	})

	t.Run("header without bearer prefix", func(t *testing.T) {
		rec := run("valid-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		rec := run("Bearer expired-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "expired")
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := run("Bearer malformed-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := run("Bearer garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
