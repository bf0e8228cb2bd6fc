package mocks

import (
	"context"

	"story-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock StoryEventPublisher
type StoryEventPublisher struct {
	mock.Mock
}

func (m *StoryEventPublisher) PublishStoryCompleted(ctx context.Context, payload messaging.StoryCompletedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
