package service

import (
	"context"
	"testing"
	"time"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListStories_MergesUserProgress(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	startedStoryID := uuid.New()
	freshStoryID := uuid.New()
	currentChapterID := uuid.New()
	lastPlayed := time.Now().UTC().Add(-30 * time.Minute)

	stories := []models.Story{
		{ID: startedStoryID, Title: "Первая встреча", PlayCount: 100, AverageRating: 4.5},
		{ID: freshStoryID, Title: "Новая история", IsPremium: true},
	}
	progresses := []models.UserStoryProgress{
		{StoryID: startedStoryID, CurrentChapterID: currentChapterID, LastPlayedAt: lastPlayed},
	}

	m.storyRepo.On("ListActive", ctx, mock.Anything).Return(stories, nil).Once()
	m.progressRepo.On("ListByUser", ctx, mock.Anything, userID).Return(progresses, nil).Once()
	m.storyRepo.On("GetChapter", ctx, mock.Anything, currentChapterID).
		Return(&models.Chapter{ID: currentChapterID, ChapterNumber: 3}, nil).Once()

	summaries, err := svc.ListStories(ctx, userID)

	require.NoError(t, err)
	require.Len(t, summaries, 2)

	started := summaries[0]
	assert.True(t, started.Started)
	assert.False(t, started.Completed)
	require.NotNil(t, started.CurrentChapterNumber)
	assert.Equal(t, 3, *started.CurrentChapterNumber)
	require.NotNil(t, started.LastPlayedAt)
	assert.Equal(t, lastPlayed, *started.LastPlayedAt)

	fresh := summaries[1]
	assert.False(t, fresh.Started)
	assert.Nil(t, fresh.CurrentChapterNumber)
	assert.True(t, fresh.IsPremium)
	m.assertExpectations(t)
}

func TestListStories_BrokenChapterRefDoesNotFailCatalog(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	storyID := uuid.New()
	chapterID := uuid.New()

	m.storyRepo.On("ListActive", ctx, mock.Anything).
		Return([]models.Story{{ID: storyID}}, nil).Once()
	m.progressRepo.On("ListByUser", ctx, mock.Anything, userID).
		Return([]models.UserStoryProgress{{StoryID: storyID, CurrentChapterID: chapterID}}, nil).Once()
	m.storyRepo.On("GetChapter", ctx, mock.Anything, chapterID).
		Return(nil, models.ErrChapterNotFound).Once()

	summaries, err := svc.ListStories(ctx, userID)

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Started)
	assert.Nil(t, summaries[0].CurrentChapterNumber)
	m.assertExpectations(t)
}

func TestGetStory_PremiumGate(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	storyID := uuid.New()
	premiumStory := &models.Story{ID: storyID, Title: "VIP", IsPremium: true}

	t.Run("non-premium user is rejected before content load", func(t *testing.T) {
		m.storyRepo.On("GetByID", ctx, mock.Anything, storyID).Return(premiumStory, nil).Once()
		m.userRepo.On("GetStats", ctx, mock.Anything, userID).
			Return(&models.UserStats{IsPremium: false}, nil).Once()

		story, err := svc.GetStory(ctx, userID, storyID)

		assert.Nil(t, story)
		assert.ErrorIs(t, err, models.ErrPremiumRequired)
		m.storyRepo.AssertNotCalled(t, "GetWithContent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("premium user gets full content", func(t *testing.T) {
		full := &models.Story{ID: storyID, IsPremium: true, Chapters: []models.Chapter{{ID: uuid.New()}}}
		m.storyRepo.On("GetByID", ctx, mock.Anything, storyID).Return(premiumStory, nil).Once()
		m.userRepo.On("GetStats", ctx, mock.Anything, userID).
			Return(&models.UserStats{IsPremium: true}, nil).Once()
		m.storyRepo.On("GetWithContent", ctx, mock.Anything, storyID).Return(full, nil).Once()

		story, err := svc.GetStory(ctx, userID, storyID)

		require.NoError(t, err)
		assert.Equal(t, full, story)
	})
	m.assertExpectations(t)
}

func TestGetStory_NotFound(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	storyID := uuid.New()
	m.storyRepo.On("GetByID", ctx, mock.Anything, storyID).
		Return(nil, models.ErrStoryNotFound).Once()

	story, err := svc.GetStory(ctx, uuid.New(), storyID)

	assert.Nil(t, story)
	assert.ErrorIs(t, err, models.ErrStoryNotFound)
	m.assertExpectations(t)
}

func TestStartStory_CreatesProgressAtStartChapter(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	storyID := uuid.New()
	startChapter := &models.Chapter{ID: uuid.New(), StoryID: storyID, ChapterNumber: 1, IsStart: true}
	progress := activeProgress(userID, storyID, startChapter.ID)

	m.storyRepo.On("GetByID", ctx, mock.Anything, storyID).
		Return(&models.Story{ID: storyID}, nil).Once()
	m.storyRepo.On("GetStartChapter", ctx, mock.Anything, storyID).Return(startChapter, nil).Once()
	m.progressRepo.On("CreateOrReset", ctx, mock.Anything, userID, storyID, startChapter.ID).
		Return(progress, nil).Once()
	m.storyRepo.On("IncrementPlayCount", ctx, mock.Anything, storyID).Return(nil).Once()

	chapter, p, err := svc.StartStory(ctx, userID, storyID)

	require.NoError(t, err)
	assert.Equal(t, startChapter, chapter)
	assert.Equal(t, progress, p)
	// Статы не читались: история не premium
	m.userRepo.AssertNotCalled(t, "GetStats", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStartStory_PremiumGate(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	storyID := uuid.New()

	m.storyRepo.On("GetByID", ctx, mock.Anything, storyID).
		Return(&models.Story{ID: storyID, IsPremium: true}, nil).Once()
	m.userRepo.On("GetStats", ctx, mock.Anything, userID).
		Return(&models.UserStats{IsPremium: false}, nil).Once()

	chapter, progress, err := svc.StartStory(ctx, userID, storyID)

	assert.Nil(t, chapter)
	assert.Nil(t, progress)
	assert.ErrorIs(t, err, models.ErrPremiumRequired)
	m.progressRepo.AssertNotCalled(t, "CreateOrReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.storyRepo.AssertNotCalled(t, "IncrementPlayCount", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStartStory_PlayCountFailureIsNotFatal(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	storyID := uuid.New()
	startChapter := &models.Chapter{ID: uuid.New(), IsStart: true}

	m.storyRepo.On("GetByID", ctx, mock.Anything, storyID).
		Return(&models.Story{ID: storyID}, nil).Once()
	m.storyRepo.On("GetStartChapter", ctx, mock.Anything, storyID).Return(startChapter, nil).Once()
	m.progressRepo.On("CreateOrReset", ctx, mock.Anything, userID, storyID, startChapter.ID).
		Return(activeProgress(userID, storyID, startChapter.ID), nil).Once()
	m.storyRepo.On("IncrementPlayCount", ctx, mock.Anything, storyID).
		Return(assert.AnError).Once()

	_, _, err := svc.StartStory(ctx, userID, storyID)

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestGetCurrentChapter(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	userID := uuid.New()
	storyID := uuid.New()
	chapterID := uuid.New()
	progress := activeProgress(userID, storyID, chapterID)
	chapter := &models.Chapter{ID: chapterID, StoryID: storyID, ChapterNumber: 4}

	t.Run("returns chapter with progress", func(t *testing.T) {
		m.progressRepo.On("Get", ctx, mock.Anything, userID, storyID).Return(progress, nil).Once()
		m.storyRepo.On("GetChapter", ctx, mock.Anything, chapterID).Return(chapter, nil).Once()

		gotChapter, gotProgress, err := svc.GetCurrentChapter(ctx, userID, storyID)

		require.NoError(t, err)
		assert.Equal(t, chapter, gotChapter)
		assert.Equal(t, progress, gotProgress)
	})

	t.Run("not started", func(t *testing.T) {
		m.progressRepo.On("Get", ctx, mock.Anything, userID, storyID).
			Return(nil, models.ErrProgressNotFound).Once()

		_, _, err := svc.GetCurrentChapter(ctx, userID, storyID)

		assert.ErrorIs(t, err, models.ErrProgressNotFound)
	})
	m.assertExpectations(t)
}
