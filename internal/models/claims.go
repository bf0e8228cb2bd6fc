package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims представляет стандартные поля JWT и пользовательские данные,
// которые мы ожидаем в токене внешнего auth-сервиса.
type Claims struct {
	UserID               uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims           // Issuer, Subject, Audience, ExpiresAt, NotBefore, IssuedAt, ID (JTI)
}
