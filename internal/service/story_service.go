package service

import (
	"context"
	"time"

	"story-server/internal/messaging"
	"story-server/internal/models"
	"story-server/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// StoryService - движок прогрессии историй: каталог, старт, текущая глава,
// принятие выбора, оценка и агрегированная статистика.
type StoryService interface {
	// ListStories возвращает каталог активных историй с прогрессом пользователя.
	ListStories(ctx context.Context, userID uuid.UUID) ([]models.StorySummary, error)
	// GetStory возвращает полный контент истории. Premium-гейт проверяется
	// ДО загрузки контента.
	GetStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Story, error)
	// StartStory создает или сбрасывает прогресс и возвращает стартовую главу.
	StartStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Chapter, *models.UserStoryProgress, error)
	// GetCurrentChapter возвращает текущую главу и прогресс.
	GetCurrentChapter(ctx context.Context, userID, storyID uuid.UUID) (*models.Chapter, *models.UserStoryProgress, error)
	// MakeChoice проводит выбор через машину состояний: позиция, требования,
	// награды, переход или завершение.
	MakeChoice(ctx context.Context, userID, storyID, chapterID, choiceID uuid.UUID, playTimeSeconds int64) (*models.ChoiceResult, error)
	// RateStory ставит оценку завершенной истории (1..5, идемпотентная перезапись).
	RateStory(ctx context.Context, userID, storyID uuid.UUID, rating int) error
	// GetStoryStats возвращает агрегированную статистику истории.
	GetStoryStats(ctx context.Context, storyID uuid.UUID) (*models.StoryStats, error)
}

type storyService struct {
	db             *pgxpool.Pool
	txManager      repository.TxManager
	storyRepo      repository.StoryRepository
	progressRepo   repository.ProgressRepository
	userRepo       repository.UserRepository
	statsCache     repository.StatsCache
	eventPublisher messaging.StoryEventPublisher
	logger         *zap.Logger

	statsCacheTTL       time.Duration
	popularChoicesLimit int
}

// Options - настройки сервиса, не являющиеся зависимостями.
type Options struct {
	StatsCacheTTL       time.Duration
	PopularChoicesLimit int
}

// NewStoryService создает новый StoryService.
// statsCache и eventPublisher опциональны (nil отключает кэш/события).
func NewStoryService(
	db *pgxpool.Pool,
	txManager repository.TxManager,
	storyRepo repository.StoryRepository,
	progressRepo repository.ProgressRepository,
	userRepo repository.UserRepository,
	statsCache repository.StatsCache,
	eventPublisher messaging.StoryEventPublisher,
	logger *zap.Logger,
	opts Options,
) StoryService {
	if opts.StatsCacheTTL <= 0 {
		opts.StatsCacheTTL = time.Minute
	}
	if opts.PopularChoicesLimit <= 0 {
		opts.PopularChoicesLimit = 5
	}
	return &storyService{
		db:                  db,
		txManager:           txManager,
		storyRepo:           storyRepo,
		progressRepo:        progressRepo,
		userRepo:            userRepo,
		statsCache:          statsCache,
		eventPublisher:      eventPublisher,
		logger:              logger.Named("StoryService"),
		statsCacheTTL:       opts.StatsCacheTTL,
		popularChoicesLimit: opts.PopularChoicesLimit,
	}
}

// querier возвращает DBTX для запросов вне транзакции.
// В тестах db == nil, репозитории замоканы и не трогают querier.
func (s *storyService) querier() repository.DBTX {
	if s.db == nil {
		return nil
	}
	return s.db
}
