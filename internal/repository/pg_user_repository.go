package repository

import (
	"context"
	"errors"
	"fmt"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
// The users table is owned by the external user service; this repository
// only reads stats and applies reward deltas.
func NewPgUserRepository(logger *zap.Logger) UserRepository {
	return &pgUserRepository{
		logger: logger.Named("PgUserRepo"),
	}
}

const getUserStatsQuery = `
SELECT id, affection, level, xp, is_premium
FROM users
WHERE id = $1`

const incrementUserStatsQuery = `
UPDATE users
SET affection = affection + $2,
    xp = xp + $3,
    updated_at = NOW()
WHERE id = $1`

// GetStats retrieves the stat snapshot the requirement evaluator consumes.
func (r *pgUserRepository) GetStats(ctx context.Context, querier DBTX, userID uuid.UUID) (*models.UserStats, error) {
	stats := &models.UserStats{}
	err := querier.QueryRow(ctx, getUserStatsQuery, userID).
		Scan(&stats.ID, &stats.Affection, &stats.Level, &stats.XP, &stats.IsPremium)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user stats", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

// IncrementStats applies affection/xp deltas. Level-up rules live in the
// user service; this engine only accumulates the raw values.
func (r *pgUserRepository) IncrementStats(ctx context.Context, querier DBTX, userID uuid.UUID, affectionDelta, xpDelta int) error {
	tag, err := querier.Exec(ctx, incrementUserStatsQuery, userID, affectionDelta, xpDelta)
	if err != nil {
		r.logger.Error("Failed to increment user stats", zap.Error(err),
			zap.Stringer("userID", userID), zap.Int("affectionDelta", affectionDelta), zap.Int("xpDelta", xpDelta))
		return fmt.Errorf("failed to increment user stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
