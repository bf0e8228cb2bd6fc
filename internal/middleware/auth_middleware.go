package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"story-server/internal/models"

	"go.uber.org/zap"
)

// TokenVerifier определяет функцию, которая проверяет строку токена и возвращает claims.
// Ошибки могут быть models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed и т.д.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// AuthMiddleware создает HTTP middleware для проверки JWT.
// Оно извлекает токен, верифицирует его с помощью предоставленного verifier
// и добавляет UserID в контекст запроса. Выпуск и продление токенов
// принадлежат внешнему auth-сервису, здесь только проверка.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.With(zap.String("path", r.URL.Path))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Authorization header missing")
				models.SendJSONError(w, "Unauthorized: Missing token", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Malformed Authorization header", zap.String("header", authHeader))
				models.SendJSONError(w, "Unauthorized: Malformed token header", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]

			claims, err := verifier(ctx, tokenString)
			if err != nil {
				status := http.StatusUnauthorized
				msg := "Unauthorized: Invalid token"
				if errors.Is(err, models.ErrTokenExpired) {
					msg = "Unauthorized: Token expired"
				} else if errors.Is(err, models.ErrTokenMalformed) || errors.Is(err, models.ErrTokenInvalid) {
					// Одинаковое сообщение для невалидного и некорректного формата
				} else {
					log.Error("Unexpected token verification error", zap.Error(err))
					status = http.StatusInternalServerError
					msg = "Internal server error during token verification"
				}
				// Логгируем начало токена для отладки, не весь токен
				tokenSnippet := tokenString
				if len(tokenString) > 10 {
					tokenSnippet = tokenString[:10] + "..."
				}
				log.Warn("Token verification failed", zap.Error(err), zap.String("tokenSnippet", tokenSnippet))
				models.SendJSONError(w, msg, status)
				return
			}

			// Добавляем информацию в контекст
			ctx = context.WithValue(ctx, models.UserContextKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
