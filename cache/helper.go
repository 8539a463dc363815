package cache

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync/atomic"
	"time"
)

const (
	// DefaultImageCacheExpiration 图片详情缓存过期时间
	DefaultImageCacheExpiration = 1 * time.Hour

	// DefaultMetricsCacheExpiration 投票统计缓存过期时间
	DefaultMetricsCacheExpiration = 5 * time.Minute
)

const metricsEpochStripes = 64

// addJitter 添加随机抖动（+0~10%），防止缓存雪崩
func addJitter(duration time.Duration) time.Duration {
	if duration <= 0 {
		return duration
	}
	span := int64(duration) / 10
	if span <= 0 {
		return duration
	}
	return duration + time.Duration(rand.Int63n(span))
}

// HelperConfig 缓存辅助工具配置
type HelperConfig struct {
	ImageCacheTTL   time.Duration
	MetricsCacheTTL time.Duration
}

// DefaultHelperConfig 返回默认配置
func DefaultHelperConfig() HelperConfig {
	return HelperConfig{
		ImageCacheTTL:   DefaultImageCacheExpiration,
		MetricsCacheTTL: DefaultMetricsCacheExpiration,
	}
}

// Helper 图片相关缓存的读写封装，provider 为 nil 时所有读取视为未命中
type Helper struct {
	provider Provider
	config   HelperConfig

	// 统计失效计数，按 file_id 哈希分段
	metricsEpochs [metricsEpochStripes]atomic.Uint64
}

// NewHelper 创建新的缓存辅助工具
func NewHelper(provider Provider, cfg ...HelperConfig) *Helper {
	c := DefaultHelperConfig()
	if len(cfg) > 0 {
		c = cfg[0]
		if c.ImageCacheTTL <= 0 {
			c.ImageCacheTTL = DefaultImageCacheExpiration
		}
		if c.MetricsCacheTTL <= 0 {
			c.MetricsCacheTTL = DefaultMetricsCacheExpiration
		}
	}
	return &Helper{
		provider: provider,
		config:   c,
	}
}

// Provider 返回底层缓存提供者
func (h *Helper) Provider() Provider {
	return h.provider
}

// CacheImage 缓存图片详情
func (h *Helper) CacheImage(ctx context.Context, fileID string, value interface{}) error {
	if h.provider == nil {
		return nil
	}
	return h.provider.Set(ctx, ImageMeta.Build(fileID), value, addJitter(h.config.ImageCacheTTL))
}

// GetCachedImage 获取缓存的图片详情
func (h *Helper) GetCachedImage(ctx context.Context, fileID string, dest interface{}) error {
	if h.provider == nil {
		return ErrCacheMiss
	}
	return h.provider.Get(ctx, ImageMeta.Build(fileID), dest)
}

// DeleteCachedImage 删除缓存的图片详情
func (h *Helper) DeleteCachedImage(ctx context.Context, fileID string) error {
	if h.provider == nil {
		return nil
	}
	return h.provider.Delete(ctx, ImageMeta.Build(fileID))
}

// CacheMetrics 缓存投票统计
func (h *Helper) CacheMetrics(ctx context.Context, fileID string, value interface{}) error {
	if h.provider == nil {
		return nil
	}
	return h.provider.Set(ctx, ImageMetrics.Build(fileID), value, addJitter(h.config.MetricsCacheTTL))
}

// MetricsEpoch 返回统计的失效计数，每次 DeleteCachedMetrics 都会递增
func (h *Helper) MetricsEpoch(fileID string) uint64 {
	return h.epoch(fileID).Load()
}

// CacheMetricsAt 仅当 epoch 之后统计没有失效时写入缓存
//
// 写入后再检查一次，期间发生失效则删除刚写入的值。
func (h *Helper) CacheMetricsAt(ctx context.Context, fileID string, value interface{}, epoch uint64) error {
	if h.MetricsEpoch(fileID) != epoch {
		return nil
	}
	if err := h.CacheMetrics(ctx, fileID, value); err != nil {
		return err
	}
	if h.MetricsEpoch(fileID) != epoch {
		if h.provider == nil {
			return nil
		}
		return h.provider.Delete(ctx, ImageMetrics.Build(fileID))
	}
	return nil
}

func (h *Helper) epoch(fileID string) *atomic.Uint64 {
	sum := fnv.New32a()
	_, _ = sum.Write([]byte(fileID))
	return &h.metricsEpochs[sum.Sum32()%metricsEpochStripes]
}

// GetCachedMetrics 获取缓存的投票统计
func (h *Helper) GetCachedMetrics(ctx context.Context, fileID string, dest interface{}) error {
	if h.provider == nil {
		return ErrCacheMiss
	}
	return h.provider.Get(ctx, ImageMetrics.Build(fileID), dest)
}

// DeleteCachedMetrics 删除缓存的投票统计
func (h *Helper) DeleteCachedMetrics(ctx context.Context, fileID string) error {
	h.epoch(fileID).Add(1)
	if h.provider == nil {
		return nil
	}
	return h.provider.Delete(ctx, ImageMetrics.Build(fileID))
}

// InvalidateImage 清除一张图片的全部缓存
func (h *Helper) InvalidateImage(ctx context.Context, fileID string) error {
	if err := h.DeleteCachedImage(ctx, fileID); err != nil {
		return err
	}
	return h.DeleteCachedMetrics(ctx, fileID)
}
