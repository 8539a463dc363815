package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/database/repo/votes"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Metrics 图片投票统计：总分、赞成数、反对数
type Metrics = votes.Metrics

var errImageMissing = errors.New("image missing")

// computed 一次统计查询的结果及开始时的失效计数
type computed struct {
	metrics Metrics
	epoch   uint64
}

// Aggregator 投票统计
type Aggregator struct {
	images *images.Repository
	votes  *votes.Repository
	cache  *cache.Helper
	group  singleflight.Group
}

// NewAggregator 创建统计器
func NewAggregator(imageRepo *images.Repository, voteRepo *votes.Repository, cacheHelper *cache.Helper) *Aggregator {
	return &Aggregator{
		images: imageRepo,
		votes:  voteRepo,
		cache:  cacheHelper,
	}
}

// MetricsFor 返回单张图片的统计，图片不存在时返回 nil, nil
func (a *Aggregator) MetricsFor(ctx context.Context, fileID string) (*Metrics, error) {
	epoch := a.cache.MetricsEpoch(fileID)

	var cached Metrics
	if err := a.cache.GetCachedMetrics(ctx, fileID, &cached); err == nil {
		return &cached, nil
	} else if !cache.IsCacheMiss(err) {
		logger.Warn("Failed to read metrics cache", zap.String("file_id", fileID), zap.Error(err))
	}

	v, err, _ := a.group.Do(fileID, func() (interface{}, error) {
		return a.compute(ctx, fileID)
	})
	if err == nil && v.(computed).epoch != epoch {
		// 共享到的查询开始于本次调用之前的投票，重新计算
		v, err = a.compute(ctx, fileID)
	}
	if err != nil {
		if errors.Is(err, errImageMissing) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to compute metrics for %s: %w", fileID, err)
	}

	m := v.(computed).metrics
	return &m, nil
}

// compute 从数据库统计，期间没有新投票时写入缓存
func (a *Aggregator) compute(ctx context.Context, fileID string) (interface{}, error) {
	epoch := a.cache.MetricsEpoch(fileID)

	imageID, err := a.images.WithContext(ctx).GetIDByFileID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errImageMissing
		}
		return nil, err
	}

	m, err := a.votes.WithContext(ctx).Metrics(imageID)
	if err != nil {
		return nil, err
	}

	if err := a.cache.CacheMetricsAt(ctx, fileID, m, epoch); err != nil {
		logger.Warn("Failed to cache metrics", zap.String("file_id", fileID), zap.Error(err))
	}
	return computed{metrics: m, epoch: epoch}, nil
}

// MetricsForImages 一次查询统计一页图片
func (a *Aggregator) MetricsForImages(ctx context.Context, imageIDs []uint) (map[uint]Metrics, error) {
	result, err := a.votes.WithContext(ctx).MetricsForImages(imageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}
	return result, nil
}
