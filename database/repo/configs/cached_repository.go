package configs

import (
	"context"
	"time"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/utils/logger"
)

// DefaultCacheTTL 默认缓存过期时间
const DefaultCacheTTL = 5 * time.Minute

// CachedRepository 带缓存的配置仓库装饰器
type CachedRepository struct {
	repo  Repository
	cache cache.Provider
	ttl   time.Duration
}

var _ Repository = (*CachedRepository)(nil)

// NewCachedRepository 创建带缓存的配置仓库
func NewCachedRepository(repo Repository, provider cache.Provider, ttl time.Duration) *CachedRepository {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		repo:  repo,
		cache: provider,
		ttl:   ttl,
	}
}

// GetByKey 先查缓存，未命中再查数据库
func (c *CachedRepository) GetByKey(ctx context.Context, key string) (*models.SystemConfig, error) {
	cacheKey := cache.SystemConfig.Build(key)

	var cached models.SystemConfig
	if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !cache.IsCacheMiss(err) {
		logger.Sugar().Warnf("Failed to read config cache %s: %v", key, err)
	}

	config, err := c.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, cacheKey, config, c.ttl); err != nil {
		logger.Sugar().Warnf("Failed to cache config %s: %v", key, err)
	}
	return config, nil
}

// Upsert 写入后清除缓存
func (c *CachedRepository) Upsert(ctx context.Context, config *models.SystemConfig) error {
	if err := c.repo.Upsert(ctx, config); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, cache.SystemConfig.Build(config.Key)); err != nil {
		logger.Sugar().Warnf("Failed to invalidate config cache %s: %v", config.Key, err)
	}
	return nil
}
