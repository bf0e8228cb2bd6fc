package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ ProgressRepository = (*pgProgressRepository)(nil)

type pgProgressRepository struct {
	logger *zap.Logger
}

// NewPgProgressRepository creates a new PostgreSQL-backed ProgressRepository.
func NewPgProgressRepository(logger *zap.Logger) ProgressRepository {
	return &pgProgressRepository{
		logger: logger.Named("PgProgressRepo"),
	}
}

const progressColumns = `
id, user_id, story_id, current_chapter_id, completed_chapter_ids, choices_made,
total_affection_gained, total_xp_gained, started_at, last_played_at, completed_at,
rating, play_time_seconds, version`

const getProgressQuery = `
SELECT ` + progressColumns + `
FROM user_story_progress
WHERE user_id = $1 AND story_id = $2`

const listProgressByUserQuery = `
SELECT ` + progressColumns + `
FROM user_story_progress
WHERE user_id = $1`

const createOrResetProgressQuery = `
INSERT INTO user_story_progress (
    id, user_id, story_id, current_chapter_id, completed_chapter_ids, choices_made,
    total_affection_gained, total_xp_gained, started_at, last_played_at, completed_at,
    rating, play_time_seconds, version
)
VALUES ($1, $2, $3, $4, '{}', '[]', 0, 0, $5, $5, NULL, NULL, 0, 1)
ON CONFLICT (user_id, story_id) DO UPDATE SET
    current_chapter_id = EXCLUDED.current_chapter_id,
    completed_chapter_ids = '{}',
    choices_made = '[]',
    total_affection_gained = 0,
    total_xp_gained = 0,
    started_at = EXCLUDED.started_at,
    last_played_at = EXCLUDED.last_played_at,
    completed_at = NULL,
    rating = NULL,
    play_time_seconds = 0,
    version = user_story_progress.version + 1
RETURNING ` + progressColumns

const advanceProgressQuery = `
UPDATE user_story_progress SET
    current_chapter_id = $1,
    completed_chapter_ids = $2,
    choices_made = $3,
    total_affection_gained = $4,
    total_xp_gained = $5,
    last_played_at = $6,
    completed_at = $7,
    play_time_seconds = $8,
    version = version + 1
WHERE user_id = $9 AND story_id = $10 AND version = $11`

const setRatingQuery = `
UPDATE user_story_progress
SET rating = $3, last_played_at = NOW()
WHERE user_id = $1 AND story_id = $2 AND completed_at IS NOT NULL`

// Get retrieves the progress row for a (user, story) pair.
func (r *pgProgressRepository) Get(ctx context.Context, querier DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error) {
	progress, err := scanProgressRow(querier.QueryRow(ctx, getProgressQuery, userID, storyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProgressNotFound
		}
		r.logger.Error("Failed to get progress", zap.Error(err),
			zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}

// ListByUser returns all progress rows of a user.
func (r *pgProgressRepository) ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID) ([]models.UserStoryProgress, error) {
	rows, err := querier.Query(ctx, listProgressByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to list progress by user", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to list progress by user: %w", err)
	}
	defer rows.Close()

	var result []models.UserStoryProgress
	for rows.Next() {
		progress, err := scanProgressRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		result = append(result, *progress)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating progress rows: %w", err)
	}
	return result, nil
}

// CreateOrReset upserts the row back to a fresh run. Restart deliberately
// clears the choice history and per-run totals; stat deltas already granted
// to the user aggregate are NOT reversed.
func (r *pgProgressRepository) CreateOrReset(ctx context.Context, querier DBTX, userID, storyID, startChapterID uuid.UUID) (*models.UserStoryProgress, error) {
	now := time.Now().UTC()
	progress, err := scanProgressRow(querier.QueryRow(ctx, createOrResetProgressQuery,
		uuid.New(), userID, storyID, startChapterID, now))
	if err != nil {
		r.logger.Error("Failed to create or reset progress", zap.Error(err),
			zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))
		return nil, fmt.Errorf("failed to create or reset progress: %w", err)
	}
	r.logger.Debug("Progress created or reset",
		zap.Stringer("userID", userID), zap.Stringer("storyID", storyID),
		zap.Stringer("startChapterID", startChapterID))
	return progress, nil
}

// Advance persists an advanced progress value. The WHERE clause carries the
// version the caller read; a concurrent writer makes this a no-op and the
// caller gets ErrVersionConflict instead of a silent double-advance.
func (r *pgProgressRepository) Advance(ctx context.Context, querier DBTX, progress *models.UserStoryProgress) error {
	choicesJSON, err := json.Marshal(progress.ChoicesMade)
	if err != nil {
		return fmt.Errorf("failed to marshal choices made: %w", err)
	}

	tag, err := querier.Exec(ctx, advanceProgressQuery,
		progress.CurrentChapterID,
		progress.CompletedChapterIDs,
		choicesJSON,
		progress.TotalAffectionGained,
		progress.TotalXPGained,
		progress.LastPlayedAt,
		progress.CompletedAt,
		progress.PlayTimeSeconds,
		progress.UserID,
		progress.StoryID,
		progress.Version,
	)
	if err != nil {
		r.logger.Error("Failed to advance progress", zap.Error(err),
			zap.Stringer("userID", progress.UserID), zap.Stringer("storyID", progress.StoryID))
		return fmt.Errorf("failed to advance progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Progress version conflict on advance",
			zap.Stringer("userID", progress.UserID), zap.Stringer("storyID", progress.StoryID),
			zap.Int64("version", progress.Version))
		return ErrVersionConflict
	}
	progress.Version++
	return nil
}

// SetRating stores the rating; the WHERE clause keeps it to completed runs,
// so a row that lost its completion (reset) cannot be rated.
func (r *pgProgressRepository) SetRating(ctx context.Context, querier DBTX, userID, storyID uuid.UUID, rating int) error {
	tag, err := querier.Exec(ctx, setRatingQuery, userID, storyID, rating)
	if err != nil {
		r.logger.Error("Failed to set rating", zap.Error(err),
			zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))
		return fmt.Errorf("failed to set rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProgressNotFound
	}
	return nil
}

// scanProgressRow scans a progress row and decodes the JSONB choice log.
func scanProgressRow(row pgx.Row) (*models.UserStoryProgress, error) {
	progress := &models.UserStoryProgress{}
	var choicesJSON []byte // Use []byte for scanning jsonb

	err := row.Scan(
		&progress.ID,
		&progress.UserID,
		&progress.StoryID,
		&progress.CurrentChapterID,
		&progress.CompletedChapterIDs,
		&choicesJSON,
		&progress.TotalAffectionGained,
		&progress.TotalXPGained,
		&progress.StartedAt,
		&progress.LastPlayedAt,
		&progress.CompletedAt,
		&progress.Rating,
		&progress.PlayTimeSeconds,
		&progress.Version,
	)
	if err != nil {
		return nil, err
	}

	if len(choicesJSON) > 0 {
		if err := json.Unmarshal(choicesJSON, &progress.ChoicesMade); err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices made: %w", err)
		}
	}
	return progress, nil
}
