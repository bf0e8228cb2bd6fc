package repository

import (
	"context"
	"errors"
	"time"

	"story-server/internal/models"

	"github.com/google/uuid"
)

// ErrVersionConflict возвращается, когда CAS-обновление строки прогресса
// не прошло: кто-то успел изменить строку между чтением и записью.
var ErrVersionConflict = errors.New("progress version conflict")

// StoryRepository defines read access to the story content graph plus the
// best-effort counters. Content itself is authored elsewhere and is
// read-only at runtime.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// ListActive returns the catalog: active story rows without chapters.
	ListActive(ctx context.Context, querier DBTX) ([]models.Story, error)
	// GetByID returns the story row (no chapters). Inactive stories are not found.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error)
	// GetWithContent returns the story with chapters ordered by chapter_number
	// and choices ordered by (ord, id).
	GetWithContent(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error)
	// GetChapter returns a chapter with its choices ordered by (ord, id).
	GetChapter(ctx context.Context, querier DBTX, chapterID uuid.UUID) (*models.Chapter, error)
	// GetStartChapter returns the single is_start chapter of a story.
	GetStartChapter(ctx context.Context, querier DBTX, storyID uuid.UUID) (*models.Chapter, error)
	// GetChoice returns a single choice with its requirements.
	GetChoice(ctx context.Context, querier DBTX, choiceID uuid.UUID) (*models.Choice, error)

	IncrementPlayCount(ctx context.Context, querier DBTX, storyID uuid.UUID) error
	IncrementCompletionCount(ctx context.Context, querier DBTX, storyID uuid.UUID) error
	IncrementSelectedCount(ctx context.Context, querier DBTX, choiceID uuid.UUID) error

	// RecalculateAverageRating recomputes stories.average_rating from the
	// non-null ratings on progress rows.
	RecalculateAverageRating(ctx context.Context, querier DBTX, storyID uuid.UUID) error
	// ListPopularChoices returns the top-N choices of a story by
	// selected_count, ties broken by choice id.
	ListPopularChoices(ctx context.Context, querier DBTX, storyID uuid.UUID, limit int) ([]models.PopularChoice, error)
}

// ProgressRepository manages the single progress row per (user, story).
//
//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
type ProgressRepository interface {
	// Get returns the progress row or models.ErrProgressNotFound.
	Get(ctx context.Context, querier DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error)
	// ListByUser returns all progress rows of a user, for catalog summaries.
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID) ([]models.UserStoryProgress, error)
	// CreateOrReset upserts the row back to a fresh run at startChapterID:
	// history cleared, totals zeroed, timestamps set to now.
	CreateOrReset(ctx context.Context, querier DBTX, userID, storyID, startChapterID uuid.UUID) (*models.UserStoryProgress, error)
	// Advance persists an already-advanced progress value with a
	// compare-and-swap on Version. Returns ErrVersionConflict when the row
	// changed underneath the caller.
	Advance(ctx context.Context, querier DBTX, progress *models.UserStoryProgress) error
	// SetRating stores the user's rating on a completed run.
	SetRating(ctx context.Context, querier DBTX, userID, storyID uuid.UUID, rating int) error
}

// UserRepository is the engine's seam onto the external User aggregate:
// read the stats the requirement evaluator needs, increment them on rewards.
//
//go:generate mockery --name UserRepository --output ./mocks --outpkg mocks --case=underscore
type UserRepository interface {
	GetStats(ctx context.Context, querier DBTX, userID uuid.UUID) (*models.UserStats, error)
	// IncrementStats applies affection/xp deltas atomically. Meant to run
	// inside the same transaction as the progress advance.
	IncrementStats(ctx context.Context, querier DBTX, userID uuid.UUID, affectionDelta, xpDelta int) error
}

// StatsCache кэширует агрегированную статистику истории на короткий TTL.
//
//go:generate mockery --name StatsCache --output ./mocks --outpkg mocks --case=underscore
type StatsCache interface {
	Get(ctx context.Context, storyID uuid.UUID) (*models.StoryStats, error)
	Set(ctx context.Context, stats *models.StoryStats, ttl time.Duration) error
	Invalidate(ctx context.Context, storyID uuid.UUID) error
}
