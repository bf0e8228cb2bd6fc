package service

import (
	"context"
	"errors"
	"time"

	"story-server/internal/messaging"
	"story-server/internal/models"
	"story-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MakeChoice - ядро машины состояний прогрессии.
//
// Порядок шагов фиксирован: позиция -> принадлежность выбора -> требования ->
// best-effort счетчик -> транзакция (награды + продвижение + completion).
// До транзакции прогресс не мутируется в БД: отклоненный выбор не оставляет
// никаких следов, повтор отклоненного вызова безопасен.
func (s *storyService) MakeChoice(ctx context.Context, userID, storyID, chapterID, choiceID uuid.UUID, playTimeSeconds int64) (*models.ChoiceResult, error) {
	log := s.logger.With(
		zap.Stringer("userID", userID),
		zap.Stringer("storyID", storyID),
		zap.Stringer("chapterID", chapterID),
		zap.Stringer("choiceID", choiceID),
	)

	// 1. Прогресс обязан существовать: история должна быть начата.
	progress, err := s.progressRepo.Get(ctx, s.querier(), userID, storyID)
	if err != nil {
		return nil, err
	}

	// Завершенная история терминальна до нового старта.
	if progress.IsCompleted() {
		return nil, ErrStoryAlreadyCompleted
	}

	// 2. Проверка позиции: защита от устаревшего состояния клиента и от
	// повторного проведения выбора из уже покинутой главы.
	if progress.CurrentChapterID != chapterID {
		log.Debug("Chapter mismatch",
			zap.Stringer("currentChapterID", progress.CurrentChapterID))
		return nil, ErrChapterMismatch
	}

	// 3. Выбор должен принадлежать заявленной главе.
	choice, err := s.storyRepo.GetChoice(ctx, s.querier(), choiceID)
	if err != nil {
		return nil, err
	}
	if choice.ChapterID != chapterID {
		log.Debug("Choice does not belong to chapter",
			zap.Stringer("choiceChapterID", choice.ChapterID))
		return nil, ErrInvalidChoice
	}

	// 4. Все требования против текущих статов; первое невыполненное
	// останавливает обработку без каких-либо мутаций.
	stats, err := s.userRepo.GetStats(ctx, s.querier(), userID)
	if err != nil {
		log.Error("Failed to get user stats", zap.Error(err))
		return nil, err
	}
	if err := checkChoiceRequirements(choice, stats, log); err != nil {
		return nil, err
	}

	// 5. Аналитический счетчик выбора - best-effort, вне транзакции.
	if err := s.storyRepo.IncrementSelectedCount(ctx, s.querier(), choiceID); err != nil {
		log.Warn("Failed to increment selected count", zap.Error(err))
	}

	// 6-7. Готовим продвинутую копию прогресса в памяти.
	now := time.Now().UTC()
	progress.ChoicesMade = append(progress.ChoicesMade, models.ChoiceRecord{
		ChapterID: chapterID,
		ChoiceID:  choiceID,
		Timestamp: now,
	})
	if !progress.HasCompletedChapter(chapterID) {
		progress.CompletedChapterIDs = append(progress.CompletedChapterIDs, chapterID)
	}
	progress.TotalAffectionGained += choice.AffectionChange
	progress.TotalXPGained += choice.XPChange
	progress.LastPlayedAt = now
	if playTimeSeconds > 0 {
		progress.PlayTimeSeconds += playTimeSeconds
	}

	var nextChapter *models.Chapter
	isComplete := false
	if choice.NextChapterID != nil {
		nextChapter, err = s.storyRepo.GetChapter(ctx, s.querier(), *choice.NextChapterID)
		if err != nil {
			// Битая ссылка в контенте - это не клиентская ошибка.
			log.Error("Next chapter referenced by choice not found",
				zap.Stringer("nextChapterID", *choice.NextChapterID), zap.Error(err))
			return nil, err
		}
		progress.CurrentChapterID = *choice.NextChapterID
	} else {
		progress.CompletedAt = &now
		isComplete = true
	}

	// 8. Награды и продвижение прогресса - одна транзакция: либо оба
	// эффекта, либо ни одного. CAS по version внутри Advance гарантирует,
	// что из двух конкурентных выборов пройдет ровно один.
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if choice.AffectionChange != 0 || choice.XPChange != 0 {
			if err := s.userRepo.IncrementStats(ctx, tx, userID, choice.AffectionChange, choice.XPChange); err != nil {
				return err
			}
		}
		if err := s.progressRepo.Advance(ctx, tx, progress); err != nil {
			return err
		}
		if isComplete {
			// Завершение ровно одно на прохождение (CAS выше), поэтому
			// счетчик можно инкрементировать в той же транзакции.
			if err := s.storyRepo.IncrementCompletionCount(ctx, tx, storyID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrProgressConflict
		}
		log.Error("Choice transaction failed", zap.Error(err))
		return nil, err
	}

	choicesResolvedTotal.Inc()
	if isComplete {
		storiesCompletedTotal.Inc()
		s.publishStoryCompleted(ctx, userID, storyID, now, log)
	}

	log.Info("Choice accepted",
		zap.Bool("isStoryComplete", isComplete),
		zap.Int("affectionChange", choice.AffectionChange),
		zap.Int("xpChange", choice.XPChange))

	return &models.ChoiceResult{
		Progress:    progress,
		NextChapter: nextChapter,
		Rewards: models.ChoiceRewards{
			Affection: choice.AffectionChange,
			XP:        choice.XPChange,
		},
		IsStoryComplete: isComplete,
	}, nil
}

// publishStoryCompleted отправляет событие завершения. Доставка push -
// забота notification-пайплайна; здесь любой сбой только логируется.
func (s *storyService) publishStoryCompleted(ctx context.Context, userID, storyID uuid.UUID, completedAt time.Time, log *zap.Logger) {
	if s.eventPublisher == nil {
		return
	}

	title := ""
	if story, err := s.storyRepo.GetByID(ctx, s.querier(), storyID); err == nil {
		title = story.Title
	}

	payload := messaging.StoryCompletedPayload{
		UserID:      userID.String(),
		StoryID:     storyID.String(),
		StoryTitle:  title,
		CompletedAt: completedAt,
	}
	if err := s.eventPublisher.PublishStoryCompleted(ctx, payload); err != nil {
		log.Warn("Failed to publish story completed event", zap.Error(err))
	}
}
