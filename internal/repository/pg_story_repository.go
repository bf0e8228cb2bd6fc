package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
// The querier (pool or transaction) is passed per call.
func NewPgStoryRepository(logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		logger: logger.Named("PgStoryRepo"),
	}
}

const listActiveStoriesQuery = `
SELECT id, title, description, thumbnail_url, is_premium, is_active,
       play_count, completion_count, average_rating, created_at, updated_at
FROM stories
WHERE is_active = TRUE
ORDER BY created_at DESC, id`

const getStoryByIDQuery = `
SELECT id, title, description, thumbnail_url, is_premium, is_active,
       play_count, completion_count, average_rating, created_at, updated_at
FROM stories
WHERE id = $1 AND is_active = TRUE`

const listChaptersQuery = `
SELECT id, story_id, chapter_number, title, content, is_start
FROM chapters
WHERE story_id = $1
ORDER BY chapter_number ASC`

const listChoicesForStoryQuery = `
SELECT c.id, c.chapter_id, c.text, c.ord, c.next_chapter_id,
       c.affection_change, c.xp_change, c.requirements, c.selected_count
FROM choices c
JOIN chapters ch ON ch.id = c.chapter_id
WHERE ch.story_id = $1
ORDER BY c.ord ASC, c.id ASC`

const getChapterQuery = `
SELECT id, story_id, chapter_number, title, content, is_start
FROM chapters
WHERE id = $1`

const getStartChapterQuery = `
SELECT id, story_id, chapter_number, title, content, is_start
FROM chapters
WHERE story_id = $1 AND is_start = TRUE`

const listChoicesForChapterQuery = `
SELECT id, chapter_id, text, ord, next_chapter_id,
       affection_change, xp_change, requirements, selected_count
FROM choices
WHERE chapter_id = $1
ORDER BY ord ASC, id ASC`

const getChoiceQuery = `
SELECT id, chapter_id, text, ord, next_chapter_id,
       affection_change, xp_change, requirements, selected_count
FROM choices
WHERE id = $1`

const incrementPlayCountQuery = `
UPDATE stories SET play_count = play_count + 1, updated_at = NOW() WHERE id = $1`

const incrementCompletionCountQuery = `
UPDATE stories SET completion_count = completion_count + 1, updated_at = NOW() WHERE id = $1`

const incrementSelectedCountQuery = `
UPDATE choices SET selected_count = selected_count + 1 WHERE id = $1`

const recalculateAverageRatingQuery = `
UPDATE stories
SET average_rating = COALESCE((
        SELECT AVG(rating)::float8
        FROM user_story_progress
        WHERE story_id = $1 AND rating IS NOT NULL
    ), 0),
    updated_at = NOW()
WHERE id = $1`

const listPopularChoicesQuery = `
SELECT c.id, c.chapter_id, c.text, c.selected_count
FROM choices c
JOIN chapters ch ON ch.id = c.chapter_id
WHERE ch.story_id = $1
ORDER BY c.selected_count DESC, c.id ASC
LIMIT $2`

// ListActive returns the catalog rows without chapters.
func (r *pgStoryRepository) ListActive(ctx context.Context, querier DBTX) ([]models.Story, error) {
	rows, err := querier.Query(ctx, listActiveStoriesQuery)
	if err != nil {
		r.logger.Error("Failed to list active stories", zap.Error(err))
		return nil, fmt.Errorf("failed to list active stories: %w", err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var s models.Story
		if err := scanStoryRow(rows, &s); err != nil {
			r.logger.Error("Failed to scan story row", zap.Error(err))
			return nil, err
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating story rows: %w", err)
	}
	return stories, nil
}

// GetByID returns the story row only. Inactive (soft-deleted) stories
// behave exactly like unknown ids.
func (r *pgStoryRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error) {
	story := &models.Story{}
	err := scanStoryRow(querier.QueryRow(ctx, getStoryByIDQuery, id), story)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

// GetWithContent loads the full content graph of a story.
func (r *pgStoryRepository) GetWithContent(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error) {
	story, err := r.GetByID(ctx, querier, id)
	if err != nil {
		return nil, err
	}

	chapterRows, err := querier.Query(ctx, listChaptersQuery, id)
	if err != nil {
		r.logger.Error("Failed to list chapters", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer chapterRows.Close()

	chapterIndex := make(map[uuid.UUID]int)
	for chapterRows.Next() {
		var ch models.Chapter
		if err := chapterRows.Scan(&ch.ID, &ch.StoryID, &ch.ChapterNumber, &ch.Title, &ch.Content, &ch.IsStart); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		chapterIndex[ch.ID] = len(story.Chapters)
		story.Chapters = append(story.Chapters, ch)
	}
	if err := chapterRows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating chapter rows: %w", err)
	}

	choiceRows, err := querier.Query(ctx, listChoicesForStoryQuery, id)
	if err != nil {
		r.logger.Error("Failed to list choices", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to list choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var c models.Choice
		if err := scanChoiceRow(choiceRows, &c); err != nil {
			return nil, err
		}
		idx, ok := chapterIndex[c.ChapterID]
		if !ok {
			// Не должно случаться при консистентных данных
			r.logger.Warn("Choice references unknown chapter",
				zap.String("choiceID", c.ID.String()), zap.String("chapterID", c.ChapterID.String()))
			continue
		}
		story.Chapters[idx].Choices = append(story.Chapters[idx].Choices, c)
	}
	if err := choiceRows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating choice rows: %w", err)
	}

	return story, nil
}

// GetChapter loads a chapter with its choices.
func (r *pgStoryRepository) GetChapter(ctx context.Context, querier DBTX, chapterID uuid.UUID) (*models.Chapter, error) {
	ch := &models.Chapter{}
	err := querier.QueryRow(ctx, getChapterQuery, chapterID).
		Scan(&ch.ID, &ch.StoryID, &ch.ChapterNumber, &ch.Title, &ch.Content, &ch.IsStart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChapterNotFound
		}
		r.logger.Error("Failed to get chapter", zap.Error(err), zap.String("chapterID", chapterID.String()))
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	if err := r.attachChoices(ctx, querier, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// GetStartChapter returns the unique starting chapter of the story.
// The schema enforces exactly one is_start per story.
func (r *pgStoryRepository) GetStartChapter(ctx context.Context, querier DBTX, storyID uuid.UUID) (*models.Chapter, error) {
	ch := &models.Chapter{}
	err := querier.QueryRow(ctx, getStartChapterQuery, storyID).
		Scan(&ch.ID, &ch.StoryID, &ch.ChapterNumber, &ch.Title, &ch.Content, &ch.IsStart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChapterNotFound
		}
		r.logger.Error("Failed to get start chapter", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to get start chapter: %w", err)
	}
	if err := r.attachChoices(ctx, querier, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// GetChoice returns a single choice with decoded requirements.
func (r *pgStoryRepository) GetChoice(ctx context.Context, querier DBTX, choiceID uuid.UUID) (*models.Choice, error) {
	c := &models.Choice{}
	err := scanChoiceRow(querier.QueryRow(ctx, getChoiceQuery, choiceID), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChoiceNotFound
		}
		r.logger.Error("Failed to get choice", zap.Error(err), zap.String("choiceID", choiceID.String()))
		return nil, fmt.Errorf("failed to get choice: %w", err)
	}
	return c, nil
}

func (r *pgStoryRepository) IncrementPlayCount(ctx context.Context, querier DBTX, storyID uuid.UUID) error {
	if _, err := querier.Exec(ctx, incrementPlayCountQuery, storyID); err != nil {
		r.logger.Error("Failed to increment play count", zap.Error(err), zap.String("storyID", storyID.String()))
		return fmt.Errorf("failed to increment play count: %w", err)
	}
	return nil
}

func (r *pgStoryRepository) IncrementCompletionCount(ctx context.Context, querier DBTX, storyID uuid.UUID) error {
	if _, err := querier.Exec(ctx, incrementCompletionCountQuery, storyID); err != nil {
		r.logger.Error("Failed to increment completion count", zap.Error(err), zap.String("storyID", storyID.String()))
		return fmt.Errorf("failed to increment completion count: %w", err)
	}
	return nil
}

func (r *pgStoryRepository) IncrementSelectedCount(ctx context.Context, querier DBTX, choiceID uuid.UUID) error {
	if _, err := querier.Exec(ctx, incrementSelectedCountQuery, choiceID); err != nil {
		r.logger.Error("Failed to increment selected count", zap.Error(err), zap.String("choiceID", choiceID.String()))
		return fmt.Errorf("failed to increment selected count: %w", err)
	}
	return nil
}

// RecalculateAverageRating recomputes the stored average from progress ratings.
func (r *pgStoryRepository) RecalculateAverageRating(ctx context.Context, querier DBTX, storyID uuid.UUID) error {
	if _, err := querier.Exec(ctx, recalculateAverageRatingQuery, storyID); err != nil {
		r.logger.Error("Failed to recalculate average rating", zap.Error(err), zap.String("storyID", storyID.String()))
		return fmt.Errorf("failed to recalculate average rating: %w", err)
	}
	return nil
}

// ListPopularChoices returns the top-N selected choices of a story.
func (r *pgStoryRepository) ListPopularChoices(ctx context.Context, querier DBTX, storyID uuid.UUID, limit int) ([]models.PopularChoice, error) {
	rows, err := querier.Query(ctx, listPopularChoicesQuery, storyID, limit)
	if err != nil {
		r.logger.Error("Failed to list popular choices", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list popular choices: %w", err)
	}
	defer rows.Close()

	var popular []models.PopularChoice
	for rows.Next() {
		var pc models.PopularChoice
		if err := rows.Scan(&pc.ChoiceID, &pc.ChapterID, &pc.Text, &pc.SelectedCount); err != nil {
			return nil, fmt.Errorf("failed to scan popular choice row: %w", err)
		}
		popular = append(popular, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating popular choice rows: %w", err)
	}
	return popular, nil
}

func (r *pgStoryRepository) attachChoices(ctx context.Context, querier DBTX, ch *models.Chapter) error {
	rows, err := querier.Query(ctx, listChoicesForChapterQuery, ch.ID)
	if err != nil {
		r.logger.Error("Failed to list chapter choices", zap.Error(err), zap.String("chapterID", ch.ID.String()))
		return fmt.Errorf("failed to list chapter choices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Choice
		if err := scanChoiceRow(rows, &c); err != nil {
			return err
		}
		ch.Choices = append(ch.Choices, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed iterating chapter choice rows: %w", err)
	}
	return nil
}

// scanStoryRow scans a story row from either pgx.Row or pgx.Rows.
func scanStoryRow(row pgx.Row, s *models.Story) error {
	return row.Scan(
		&s.ID, &s.Title, &s.Description, &s.ThumbnailURL, &s.IsPremium, &s.IsActive,
		&s.PlayCount, &s.CompletionCount, &s.AverageRating, &s.CreatedAt, &s.UpdatedAt,
	)
}

// scanChoiceRow scans a choice row and decodes the requirements JSONB.
func scanChoiceRow(row pgx.Row, c *models.Choice) error {
	var requirementsJSON []byte
	err := row.Scan(
		&c.ID, &c.ChapterID, &c.Text, &c.Ord, &c.NextChapterID,
		&c.AffectionChange, &c.XPChange, &requirementsJSON, &c.SelectedCount,
	)
	if err != nil {
		return err
	}
	if len(requirementsJSON) > 0 {
		if err := json.Unmarshal(requirementsJSON, &c.Requirements); err != nil {
			return fmt.Errorf("failed to unmarshal choice requirements: %w", err)
		}
	}
	return nil
}
