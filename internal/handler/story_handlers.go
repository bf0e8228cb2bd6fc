package handler

import (
	"fmt"
	"net/http"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// listStories возвращает каталог с прогрессом текущего пользователя.
func (h *StoryHandler) listStories(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, models.ErrUnauthorized)
	}

	summaries, err := h.service.ListStories(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Error listing stories", zap.Error(err))
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, summaries)
}

// getStory возвращает полный контент истории (с premium-гейтом).
func (h *StoryHandler) getStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, models.ErrUnauthorized)
	}
	storyID, err := parseStoryIDParam(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	story, err := h.service.GetStory(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, story)
}

// startStory создает или сбрасывает прогресс и возвращает первую главу.
func (h *StoryHandler) startStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, models.ErrUnauthorized)
	}
	storyID, err := parseStoryIDParam(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	log := h.logger.With(zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))
	log.Info("startStory called")

	chapter, progress, err := h.service.StartStory(c.Request().Context(), userID, storyID)
	if err != nil {
		log.Error("Error starting story", zap.Error(err))
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, ChapterWithProgressResponse{
		Chapter:  chapter,
		Progress: progress,
	})
}

// getCurrentChapter возвращает текущую главу и прогресс.
func (h *StoryHandler) getCurrentChapter(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, models.ErrUnauthorized)
	}
	storyID, err := parseStoryIDParam(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	chapter, progress, err := h.service.GetCurrentChapter(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, ChapterWithProgressResponse{
		Chapter:  chapter,
		Progress: progress,
	})
}

// makeChoice обрабатывает выбор игрока.
func (h *StoryHandler) makeChoice(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, models.ErrUnauthorized)
	}

	var req MakeChoiceRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Invalid request body for makeChoice", zap.Error(err))
		return handleServiceError(c, fmt.Errorf("%w: invalid request body", models.ErrBadRequest))
	}
	if req.StoryID == uuid.Nil || req.ChapterID == uuid.Nil || req.ChoiceID == uuid.Nil {
		return handleServiceError(c, fmt.Errorf("%w: storyId, chapterId and choiceId are required", models.ErrBadRequest))
	}

	log := h.logger.With(
		zap.Stringer("userID", userID),
		zap.Stringer("storyID", req.StoryID),
		zap.Stringer("chapterID", req.ChapterID),
		zap.Stringer("choiceID", req.ChoiceID),
	)
	log.Info("makeChoice called")

	result, err := h.service.MakeChoice(c.Request().Context(), userID, req.StoryID, req.ChapterID, req.ChoiceID, req.PlayTimeSeconds)
	if err != nil {
		log.Warn("Choice rejected", zap.Error(err))
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// rateStory ставит оценку завершенной истории.
func (h *StoryHandler) rateStory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, models.ErrUnauthorized)
	}
	storyID, err := parseStoryIDParam(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req RateStoryRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Invalid request body for rateStory", zap.Error(err))
		return handleServiceError(c, fmt.Errorf("%w: invalid request body", models.ErrBadRequest))
	}

	if err := h.service.RateStory(c.Request().Context(), userID, storyID, req.Rating); err != nil {
		return handleServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// getStoryStats возвращает агрегированную статистику истории.
func (h *StoryHandler) getStoryStats(c echo.Context) error {
	if _, err := getUserIDFromContext(c); err != nil {
		return handleServiceError(c, models.ErrUnauthorized)
	}
	storyID, err := parseStoryIDParam(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	stats, err := h.service.GetStoryStats(c.Request().Context(), storyID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
