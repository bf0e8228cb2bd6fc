package mocks

import (
	"context"
	"time"

	"story-server/internal/models"
	"story-server/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) ListActive(ctx context.Context, querier repository.DBTX) ([]models.Story, error) {
	args := m.Called(ctx, querier)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, querier, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) GetWithContent(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, querier, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) GetChapter(ctx context.Context, querier repository.DBTX, chapterID uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, querier, chapterID)
	chapter, _ := args.Get(0).(*models.Chapter)
	return chapter, args.Error(1)
}
func (m *StoryRepository) GetStartChapter(ctx context.Context, querier repository.DBTX, storyID uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, querier, storyID)
	chapter, _ := args.Get(0).(*models.Chapter)
	return chapter, args.Error(1)
}
func (m *StoryRepository) GetChoice(ctx context.Context, querier repository.DBTX, choiceID uuid.UUID) (*models.Choice, error) {
	args := m.Called(ctx, querier, choiceID)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}
func (m *StoryRepository) IncrementPlayCount(ctx context.Context, querier repository.DBTX, storyID uuid.UUID) error {
	args := m.Called(ctx, querier, storyID)
	return args.Error(0)
}
func (m *StoryRepository) IncrementCompletionCount(ctx context.Context, querier repository.DBTX, storyID uuid.UUID) error {
	args := m.Called(ctx, querier, storyID)
	return args.Error(0)
}
func (m *StoryRepository) IncrementSelectedCount(ctx context.Context, querier repository.DBTX, choiceID uuid.UUID) error {
	args := m.Called(ctx, querier, choiceID)
	return args.Error(0)
}
func (m *StoryRepository) RecalculateAverageRating(ctx context.Context, querier repository.DBTX, storyID uuid.UUID) error {
	args := m.Called(ctx, querier, storyID)
	return args.Error(0)
}
func (m *StoryRepository) ListPopularChoices(ctx context.Context, querier repository.DBTX, storyID uuid.UUID, limit int) ([]models.PopularChoice, error) {
	args := m.Called(ctx, querier, storyID, limit)
	popular, _ := args.Get(0).([]models.PopularChoice)
	return popular, args.Error(1)
}

// Mock ProgressRepository
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) Get(ctx context.Context, querier repository.DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error) {
	args := m.Called(ctx, querier, userID, storyID)
	progress, _ := args.Get(0).(*models.UserStoryProgress)
	return progress, args.Error(1)
}
func (m *ProgressRepository) ListByUser(ctx context.Context, querier repository.DBTX, userID uuid.UUID) ([]models.UserStoryProgress, error) {
	args := m.Called(ctx, querier, userID)
	progresses, _ := args.Get(0).([]models.UserStoryProgress)
	return progresses, args.Error(1)
}
func (m *ProgressRepository) CreateOrReset(ctx context.Context, querier repository.DBTX, userID, storyID, startChapterID uuid.UUID) (*models.UserStoryProgress, error) {
	args := m.Called(ctx, querier, userID, storyID, startChapterID)
	progress, _ := args.Get(0).(*models.UserStoryProgress)
	return progress, args.Error(1)
}
func (m *ProgressRepository) Advance(ctx context.Context, querier repository.DBTX, progress *models.UserStoryProgress) error {
	args := m.Called(ctx, querier, progress)
	return args.Error(0)
}
func (m *ProgressRepository) SetRating(ctx context.Context, querier repository.DBTX, userID, storyID uuid.UUID, rating int) error {
	args := m.Called(ctx, querier, userID, storyID, rating)
	return args.Error(0)
}

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetStats(ctx context.Context, querier repository.DBTX, userID uuid.UUID) (*models.UserStats, error) {
	args := m.Called(ctx, querier, userID)
	stats, _ := args.Get(0).(*models.UserStats)
	return stats, args.Error(1)
}
func (m *UserRepository) IncrementStats(ctx context.Context, querier repository.DBTX, userID uuid.UUID, affectionDelta, xpDelta int) error {
	args := m.Called(ctx, querier, userID, affectionDelta, xpDelta)
	return args.Error(0)
}

// Mock StatsCache
type StatsCache struct {
	mock.Mock
}

func (m *StatsCache) Get(ctx context.Context, storyID uuid.UUID) (*models.StoryStats, error) {
	args := m.Called(ctx, storyID)
	stats, _ := args.Get(0).(*models.StoryStats)
	return stats, args.Error(1)
}
func (m *StatsCache) Set(ctx context.Context, stats *models.StoryStats, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}
func (m *StatsCache) Invalidate(ctx context.Context, storyID uuid.UUID) error {
	args := m.Called(ctx, storyID)
	return args.Error(0)
}

// FakeTxManager выполняет функцию транзакции сразу, без настоящей БД.
// Ошибка из fn пробрасывается как при реальном rollback.
type FakeTxManager struct{}

func (f *FakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	return fn(ctx, nil)
}
