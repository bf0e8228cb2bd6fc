package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisStatsCache implements StatsCache
var _ StatsCache = (*redisStatsCache)(nil)

type redisStatsCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStatsCache creates a new Redis-backed StatsCache.
func NewRedisStatsCache(client *redis.Client, logger *zap.Logger) StatsCache {
	return &redisStatsCache{
		client: client,
		logger: logger.Named("RedisStatsCache"),
	}
}

func statsKey(storyID uuid.UUID) string {
	return fmt.Sprintf("story_stats:%s", storyID.String())
}

// Get returns cached stats or models.ErrNotFound on a miss.
func (c *redisStatsCache) Get(ctx context.Context, storyID uuid.UUID) (*models.StoryStats, error) {
	payload, err := c.client.Get(ctx, statsKey(storyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		c.logger.Warn("Failed to read stats from cache", zap.Error(err), zap.Stringer("storyID", storyID))
		return nil, fmt.Errorf("failed to read stats from cache: %w", err)
	}

	stats := &models.StoryStats{}
	if err := json.Unmarshal(payload, stats); err != nil {
		c.logger.Warn("Failed to unmarshal cached stats, dropping entry", zap.Error(err), zap.Stringer("storyID", storyID))
		// Битая запись бесполезна, удаляем и считаем промахом
		c.client.Del(ctx, statsKey(storyID))
		return nil, models.ErrNotFound
	}
	return stats, nil
}

// Set stores the stats payload with the given TTL.
func (c *redisStatsCache) Set(ctx context.Context, stats *models.StoryStats, ttl time.Duration) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(stats.StoryID), payload, ttl).Err(); err != nil {
		c.logger.Warn("Failed to write stats to cache", zap.Error(err), zap.Stringer("storyID", stats.StoryID))
		return fmt.Errorf("failed to write stats to cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry, used after a rating write.
func (c *redisStatsCache) Invalidate(ctx context.Context, storyID uuid.UUID) error {
	if err := c.client.Del(ctx, statsKey(storyID)).Err(); err != nil {
		c.logger.Warn("Failed to invalidate stats cache", zap.Error(err), zap.Stringer("storyID", storyID))
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}
