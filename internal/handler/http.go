package handler

import (
	"errors"
	"fmt"
	"net/http"

	"story-server/internal/authutils"
	"story-server/internal/middleware"
	"story-server/internal/models"
	"story-server/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// StoryHandler обрабатывает HTTP запросы движка историй.
type StoryHandler struct {
	service           service.StoryService
	logger            *zap.Logger
	userTokenVerifier *authutils.JWTVerifier
}

// NewStoryHandler создает новый StoryHandler.
func NewStoryHandler(s service.StoryService, logger *zap.Logger, jwtSecret string) *StoryHandler {
	verifier, err := authutils.NewJWTVerifier(jwtSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create User JWT Verifier", zap.Error(err))
	}

	return &StoryHandler{
		service:           s,
		logger:            logger.Named("StoryHandler"),
		userTokenVerifier: verifier,
	}
}

// RegisterRoutes регистрирует маршруты движка историй.
func (h *StoryHandler) RegisterRoutes(e *echo.Echo) {
	// Middleware для проверки токена пользователя
	authMiddleware := echo.WrapMiddleware(middleware.AuthMiddleware(h.userTokenVerifier.VerifyToken, h.logger))

	e.GET("/health", h.health)

	storiesGroup := e.Group("/stories", authMiddleware)
	{
		storiesGroup.GET("", h.listStories)
		storiesGroup.POST("/choice", h.makeChoice)
		storiesGroup.GET("/:story_id", h.getStory)
		storiesGroup.POST("/:story_id/start", h.startStory)
		storiesGroup.GET("/:story_id/current", h.getCurrentChapter)
		storiesGroup.POST("/:story_id/rate", h.rateStory)
		storiesGroup.GET("/:story_id/stats", h.getStoryStats)
	}
}

// --- Вспомогательные функции --- //

// getUserIDFromContext извлекает userID, положенный auth middleware.
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id не найден в контексте")
	}
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("невалидный user_id в контексте")
	}
	return userID, nil
}

// parseStoryIDParam разбирает :story_id из пути.
func parseStoryIDParam(c echo.Context) (uuid.UUID, error) {
	idStr := c.Param("story_id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid story ID format", models.ErrBadRequest)
	}
	return id, nil
}

// handleServiceError переводит внутреннюю таксономию ошибок во внешние коды.
func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrPremiumRequired):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrRequirementNotMet):
		// Несем причину авторской гейт-проверки как есть
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrProgressNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Story not started, call start first"}
	case errors.Is(err, models.ErrStoryNotFound) || errors.Is(err, models.ErrChapterNotFound) ||
		errors.Is(err, models.ErrChoiceNotFound) || errors.Is(err, models.ErrUserNotFound) ||
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, service.ErrChapterMismatch) || errors.Is(err, service.ErrStoryAlreadyCompleted):
		// Рассинхрон состояния клиента, не временная ошибка
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrProgressConflict):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrStoryNotCompleted):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrInvalidChoice) || errors.Is(err, service.ErrInvalidRating):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrBadRequest) || errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	return c.JSON(statusCode, apiErr)
}

// health - проверка живости для оркестратора.
func (h *StoryHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
