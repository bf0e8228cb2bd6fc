package handler

import (
	"story-server/internal/models"

	"github.com/google/uuid"
)

// MakeChoiceRequest - тело POST /stories/choice.
type MakeChoiceRequest struct {
	StoryID   uuid.UUID `json:"storyId"`
	ChapterID uuid.UUID `json:"chapterId"`
	ChoiceID  uuid.UUID `json:"choiceId"`
	// Время на главе в секундах, опционально; накапливается в playTime.
	PlayTimeSeconds int64 `json:"playTimeSeconds,omitempty"`
}

// RateStoryRequest - тело POST /stories/:story_id/rate.
type RateStoryRequest struct {
	Rating int `json:"rating"`
}

// ChapterWithProgressResponse - глава плюс прогресс пользователя.
// Используется для start и current.
type ChapterWithProgressResponse struct {
	Chapter  *models.Chapter           `json:"chapter"`
	Progress *models.UserStoryProgress `json:"progress"`
}
