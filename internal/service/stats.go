package service

import (
	"context"
	"errors"

	"story-server/internal/models"
	"story-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateStory ставит оценку завершенной истории. Повторная оценка
// идемпотентно перезаписывает прежнюю и пересчитывает средний рейтинг.
func (s *storyService) RateStory(ctx context.Context, userID, storyID uuid.UUID, rating int) error {
	log := s.logger.With(
		zap.Stringer("userID", userID),
		zap.Stringer("storyID", storyID),
		zap.Int("rating", rating),
	)

	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	progress, err := s.progressRepo.Get(ctx, s.querier(), userID, storyID)
	if err != nil {
		return err
	}
	if !progress.IsCompleted() {
		return ErrStoryNotCompleted
	}

	// Запись оценки и пересчет среднего - одна транзакция, чтобы
	// average_rating не разъезжался с оценками.
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.progressRepo.SetRating(ctx, tx, userID, storyID, rating); err != nil {
			return err
		}
		return s.storyRepo.RecalculateAverageRating(ctx, tx, storyID)
	})
	if err != nil {
		log.Error("Failed to rate story", zap.Error(err))
		return err
	}

	// Кэш статистики теперь устарел.
	if s.statsCache != nil {
		if err := s.statsCache.Invalidate(ctx, storyID); err != nil {
			log.Warn("Failed to invalidate stats cache", zap.Error(err))
		}
	}

	log.Info("Story rated")
	return nil
}

// GetStoryStats возвращает агрегированную статистику истории, с коротким
// кэшем в Redis.
func (s *storyService) GetStoryStats(ctx context.Context, storyID uuid.UUID) (*models.StoryStats, error) {
	log := s.logger.With(zap.Stringer("storyID", storyID))

	if s.statsCache != nil {
		cached, err := s.statsCache.Get(ctx, storyID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			// Кэш недоступен - идем в БД
			log.Warn("Stats cache read failed", zap.Error(err))
		}
	}

	story, err := s.storyRepo.GetByID(ctx, s.querier(), storyID)
	if err != nil {
		return nil, err
	}

	popular, err := s.storyRepo.ListPopularChoices(ctx, s.querier(), storyID, s.popularChoicesLimit)
	if err != nil {
		return nil, err
	}

	stats := &models.StoryStats{
		StoryID:         storyID,
		PlayCount:       story.PlayCount,
		CompletionCount: story.CompletionCount,
		AverageRating:   story.AverageRating,
		PopularChoices:  popular,
	}
	// Деление на ноль охраняем явно: история без запусков имеет rate 0.
	if story.PlayCount > 0 {
		stats.CompletionRate = float64(story.CompletionCount) / float64(story.PlayCount) * 100
	}

	if s.statsCache != nil {
		if err := s.statsCache.Set(ctx, stats, s.statsCacheTTL); err != nil {
			log.Warn("Failed to cache story stats", zap.Error(err))
		}
	}

	return stats, nil
}
