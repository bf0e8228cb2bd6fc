package models

import "github.com/google/uuid"

// UserStats - срез статов пользователя, потребляемый движком.
// Сам агрегат User принадлежит внешнему сервису; здесь только то,
// что нужно для проверки требований и начисления наград.
type UserStats struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Affection int       `db:"affection" json:"affection"`
	Level     int       `db:"level" json:"level"`
	XP        int       `db:"xp" json:"xp"`
	IsPremium bool      `db:"is_premium" json:"isPremium"`
}
