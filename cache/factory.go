package cache

import (
	"fmt"
	"strings"

	"github.com/anoixa/image-gallery/cache/memory"
	"github.com/anoixa/image-gallery/cache/redis"
	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
)

// NewProvider 根据配置创建缓存提供者，redis 不可用时回退到内存缓存
func NewProvider(cfg *config.Config) (Provider, error) {
	switch strings.ToLower(cfg.CacheType) {
	case "", "memory":
		return newMemoryProvider(cfg)
	case "redis":
		provider, err := redis.NewRedisFromConfig(&redis.Config{
			Address:  cfg.CacheRedisAddr,
			Password: cfg.CacheRedisPassword,
			DB:       cfg.CacheRedisDB,
		})
		if err != nil {
			logger.Warn("Redis cache unavailable, falling back to memory cache",
				zap.String("addr", cfg.CacheRedisAddr), zap.Error(err))
			return newMemoryProvider(cfg)
		}
		logger.Info("Cache provider initialized", zap.String("type", "redis"), zap.String("addr", cfg.CacheRedisAddr))
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

func newMemoryProvider(cfg *config.Config) (Provider, error) {
	provider, err := memory.NewMemory(memory.DefaultConfig(cfg.CacheMemoryMaxCost))
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	logger.Info("Cache provider initialized", zap.String("type", "memory"))
	return provider, nil
}
