package maintenance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	configSvc "github.com/anoixa/image-gallery/config/db"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/images"
	imageSvc "github.com/anoixa/image-gallery/internal/image"
	"github.com/anoixa/image-gallery/internal/worker"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils/generator"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
)

// RebuildOptions 缩略图重建选项
type RebuildOptions struct {
	Workers     int
	MissingOnly bool // 只补齐缺失的缩略图
}

// RebuildReport 重建结果
type RebuildReport struct {
	Scanned int
	Rebuilt int
	Skipped int // 没有扩展名的旧记录或已有缩略图
	Errors  []string
}

// ThumbnailRebuilder 按当前配置的边长重新生成缩略图
type ThumbnailRebuilder struct {
	images    *images.Repository
	storage   storage.Provider
	settings  *configSvc.Manager
	paths     *generator.PathGenerator
	batchSize int
}

// NewThumbnailRebuilder 创建缩略图重建器
func NewThumbnailRebuilder(imageRepo *images.Repository, provider storage.Provider, settings *configSvc.Manager) *ThumbnailRebuilder {
	return &ThumbnailRebuilder{
		images:    imageRepo,
		storage:   provider,
		settings:  settings,
		paths:     generator.NewPathGenerator(),
		batchSize: defaultBatchSize,
	}
}

// Run 扫描全部记录并在协程池中重建缩略图
func (r *ThumbnailRebuilder) Run(ctx context.Context, opts RebuildOptions) (*RebuildReport, error) {
	settings, err := r.settings.GetGallerySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery settings: %w", err)
	}

	pool := worker.NewPool(opts.Workers, r.batchSize)
	report := &RebuildReport{}
	var mu sync.Mutex
	record := func(rebuilt bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			report.Errors = append(report.Errors, err.Error())
		case rebuilt:
			report.Rebuilt++
		default:
			report.Skipped++
		}
	}

	scanErr := r.images.WithContext(ctx).FindInBatches(r.batchSize, func(batch []models.ImageContent) error {
		for _, img := range batch {
			mu.Lock()
			report.Scanned++
			mu.Unlock()

			if img.Ext == "" {
				record(false, nil)
				continue
			}
			if !pool.SubmitWait(ctx, func() {
				record(r.rebuild(ctx, img, settings.ThumbnailSize, opts.MissingOnly))
			}) {
				return ctx.Err()
			}
		}
		return nil
	})
	pool.Stop()

	if scanErr != nil {
		return report, fmt.Errorf("failed to scan images: %w", scanErr)
	}

	logger.Info("Thumbnail rebuild finished",
		zap.Int("size", settings.ThumbnailSize),
		zap.Int("scanned", report.Scanned),
		zap.Int("rebuilt", report.Rebuilt),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (r *ThumbnailRebuilder) rebuild(ctx context.Context, img models.ImageContent, size int, missingOnly bool) (bool, error) {
	ids := r.paths.Generate(img.UserContent.Directory, img.FileID, img.Ext)

	if missingOnly {
		exists, err := r.storage.Exists(ctx, ids.ThumbnailPath)
		if err != nil {
			return false, fmt.Errorf("check %s: %w", img.FileID, err)
		}
		if exists {
			return false, nil
		}
	}

	reader, err := r.storage.GetWithContext(ctx, ids.OriginalPath)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", img.FileID, err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", img.FileID, err)
	}

	thumb, err := imageSvc.MakeThumbnail(data, img.Ext, size)
	if err != nil {
		return false, fmt.Errorf("thumbnail %s: %w", img.FileID, err)
	}
	if err := r.storage.SaveWithContext(ctx, ids.ThumbnailPath, bytes.NewReader(thumb)); err != nil {
		return false, fmt.Errorf("save %s: %w", img.FileID, err)
	}
	return true, nil
}
