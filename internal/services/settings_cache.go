package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const rewardSettingsCacheKey = "wayzx:reward_settings"

// SettingsCache holds the reward settings singleton between reads.
// Cache failures degrade to a miss and never fail the caller.
type SettingsCache interface {
	Get(ctx context.Context) (*models.RewardSetting, bool)
	Set(ctx context.Context, s *models.RewardSetting)
	Invalidate(ctx context.Context)
}

// RedisSettingsCache stores the settings as JSON under a single key
type RedisSettingsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisSettingsCache creates a Redis-backed settings cache
func NewRedisSettingsCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisSettingsCache {
	return &RedisSettingsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached settings, if any
func (c *RedisSettingsCache) Get(ctx context.Context) (*models.RewardSetting, bool) {
	data, err := c.client.Get(ctx, rewardSettingsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("Reward settings cache read failed")
		}
		return nil, false
	}

	var s models.RewardSetting
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.WithError(err).Warn("Discarding malformed reward settings cache entry")
		return nil, false
	}
	return &s, true
}

// Set stores the settings with the configured TTL
func (c *RedisSettingsCache) Set(ctx context.Context, s *models.RewardSetting) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, rewardSettingsCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Reward settings cache write failed")
	}
}

// Invalidate drops the cached settings
func (c *RedisSettingsCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, rewardSettingsCacheKey).Err(); err != nil {
		c.logger.WithError(err).Warn("Reward settings cache invalidation failed")
	}
}

// MemorySettingsCache is a process-local cache used when Redis is not configured
type MemorySettingsCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	value   *models.RewardSetting
	expires time.Time
}

// NewMemorySettingsCache creates an in-process settings cache
func NewMemorySettingsCache(ttl time.Duration) *MemorySettingsCache {
	return &MemorySettingsCache{ttl: ttl}
}

// Get returns a copy of the cached settings while they are fresh
func (c *MemorySettingsCache) Get(ctx context.Context) (*models.RewardSetting, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == nil || time.Now().After(c.expires) {
		return nil, false
	}
	s := *c.value
	return &s, true
}

// Set stores a copy of the settings for the TTL; a non-positive TTL disables caching
func (c *MemorySettingsCache) Set(ctx context.Context, s *models.RewardSetting) {
	if c.ttl <= 0 {
		return
	}
	copied := *s
	c.mu.Lock()
	c.value = &copied
	c.expires = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

// Invalidate drops the cached settings
func (c *MemorySettingsCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
}
