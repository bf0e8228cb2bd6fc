package service

import (
	"context"

	"story-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListStories возвращает каталог активных историй, дополненный прогрессом
// текущего пользователя.
func (s *storyService) ListStories(ctx context.Context, userID uuid.UUID) ([]models.StorySummary, error) {
	log := s.logger.With(zap.Stringer("userID", userID))

	stories, err := s.storyRepo.ListActive(ctx, s.querier())
	if err != nil {
		log.Error("Failed to list active stories", zap.Error(err))
		return nil, err
	}

	progresses, err := s.progressRepo.ListByUser(ctx, s.querier(), userID)
	if err != nil {
		log.Error("Failed to list user progress", zap.Error(err))
		return nil, err
	}
	progressByStory := make(map[uuid.UUID]models.UserStoryProgress, len(progresses))
	for _, p := range progresses {
		progressByStory[p.StoryID] = p
	}

	summaries := make([]models.StorySummary, 0, len(stories))
	for _, story := range stories {
		summary := models.StorySummary{
			ID:            story.ID,
			Title:         story.Title,
			Description:   story.Description,
			ThumbnailURL:  story.ThumbnailURL,
			IsPremium:     story.IsPremium,
			PlayCount:     story.PlayCount,
			AverageRating: story.AverageRating,
		}

		if progress, ok := progressByStory[story.ID]; ok {
			summary.Started = true
			summary.Completed = progress.IsCompleted()
			lastPlayed := progress.LastPlayedAt
			summary.LastPlayedAt = &lastPlayed

			// Номер текущей главы для продолжения с места остановки.
			chapter, chErr := s.storyRepo.GetChapter(ctx, s.querier(), progress.CurrentChapterID)
			if chErr != nil {
				// Не валим каталог из-за одной битой ссылки
				log.Warn("Failed to resolve current chapter for summary",
					zap.Stringer("storyID", story.ID), zap.Error(chErr))
			} else {
				summary.CurrentChapterNumber = &chapter.ChapterNumber
			}
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetStory возвращает историю с главами и выборами. Для premium-истории
// пользователь без подписки получает отказ до того, как будет загружен
// хоть какой-то контент.
func (s *storyService) GetStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Story, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))

	story, err := s.storyRepo.GetByID(ctx, s.querier(), storyID)
	if err != nil {
		return nil, err
	}

	if story.IsPremium {
		stats, err := s.userRepo.GetStats(ctx, s.querier(), userID)
		if err != nil {
			log.Error("Failed to get user stats for premium gate", zap.Error(err))
			return nil, err
		}
		if !stats.IsPremium {
			log.Debug("Premium story requested by non-premium user")
			return nil, models.ErrPremiumRequired
		}
	}

	return s.storyRepo.GetWithContent(ctx, s.querier(), storyID)
}
