package service

import (
	"context"

	"story-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartStory создает прогресс для пары (user, story) или сбрасывает
// существующий на стартовую главу. Сброс намеренно стирает историю выборов
// и суммы за прохождение, но не откатывает уже начисленные пользователю
// статы.
func (s *storyService) StartStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Chapter, *models.UserStoryProgress, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))

	story, err := s.storyRepo.GetByID(ctx, s.querier(), storyID)
	if err != nil {
		return nil, nil, err
	}

	// Premium-гейт до любого контента и до создания прогресса.
	if story.IsPremium {
		stats, err := s.userRepo.GetStats(ctx, s.querier(), userID)
		if err != nil {
			log.Error("Failed to get user stats for premium gate", zap.Error(err))
			return nil, nil, err
		}
		if !stats.IsPremium {
			return nil, nil, models.ErrPremiumRequired
		}
	}

	startChapter, err := s.storyRepo.GetStartChapter(ctx, s.querier(), storyID)
	if err != nil {
		log.Error("Failed to get start chapter", zap.Error(err))
		return nil, nil, err
	}

	progress, err := s.progressRepo.CreateOrReset(ctx, s.querier(), userID, storyID, startChapter.ID)
	if err != nil {
		return nil, nil, err
	}

	// Счетчик запусков - best-effort, не ломаем старт из-за него.
	if err := s.storyRepo.IncrementPlayCount(ctx, s.querier(), storyID); err != nil {
		log.Warn("Failed to increment play count", zap.Error(err))
	}

	log.Info("Story started", zap.Stringer("startChapterID", startChapter.ID))
	return startChapter, progress, nil
}

// GetCurrentChapter возвращает главу, на которой пользователь остановился,
// вместе с прогрессом.
func (s *storyService) GetCurrentChapter(ctx context.Context, userID, storyID uuid.UUID) (*models.Chapter, *models.UserStoryProgress, error) {
	progress, err := s.progressRepo.Get(ctx, s.querier(), userID, storyID)
	if err != nil {
		return nil, nil, err
	}

	chapter, err := s.storyRepo.GetChapter(ctx, s.querier(), progress.CurrentChapterID)
	if err != nil {
		s.logger.Error("Failed to load current chapter",
			zap.Stringer("userID", userID), zap.Stringer("storyID", storyID),
			zap.Stringer("chapterID", progress.CurrentChapterID), zap.Error(err))
		return nil, nil, err
	}

	return chapter, progress, nil
}
