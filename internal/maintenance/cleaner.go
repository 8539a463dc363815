// Package maintenance 数据库记录与存储文件的一致性清理
package maintenance

import (
	"context"
	"fmt"
	"path"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/contents"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils/generator"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
)

const defaultBatchSize = 200

// Options 清理选项
type Options struct {
	DryRun      bool
	RecordsOnly bool // 只清理缺少原图的记录
	FilesOnly   bool // 只清理没有记录的文件
}

// Report 清理结果
type Report struct {
	OrphanRecords  []string // 缺少原图的 file_id
	DeletedRecords int64
	OrphanFiles    []string // 没有记录的存储路径
	DeletedFiles   int
	Errors         []string
}

// Cleaner 孤儿记录与孤儿文件清理
type Cleaner struct {
	images    *images.Repository
	contents  *contents.Repository
	storage   storage.Provider
	cache     *cache.Helper
	paths     *generator.PathGenerator
	batchSize int
}

// NewCleaner 创建清理器
func NewCleaner(imageRepo *images.Repository, contentRepo *contents.Repository, provider storage.Provider, cacheHelper *cache.Helper) *Cleaner {
	return &Cleaner{
		images:    imageRepo,
		contents:  contentRepo,
		storage:   provider,
		cache:     cacheHelper,
		paths:     generator.NewPathGenerator(),
		batchSize: defaultBatchSize,
	}
}

// directoryIndex 目录 -> 该目录下有记录的 file_id
type directoryIndex map[string]map[string]struct{}

func (idx directoryIndex) add(dir, fileID string) {
	ids, ok := idx[dir]
	if !ok {
		ids = make(map[string]struct{})
		idx[dir] = ids
	}
	ids[fileID] = struct{}{}
}

func (idx directoryIndex) has(dir, fileID string) bool {
	_, ok := idx[dir][fileID]
	return ok
}

// Run 扫描全部记录与用户目录
func (c *Cleaner) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{}
	known := make(directoryIndex)
	listings := make(map[string][]string)

	var orphans []models.ImageContent
	err := c.images.WithContext(ctx).FindInBatches(c.batchSize, func(batch []models.ImageContent) error {
		for _, img := range batch {
			dir := img.UserContent.Directory
			missing, err := c.originalMissing(ctx, img, listings)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("check %s: %v", img.FileID, err))
				known.add(dir, img.FileID)
				continue
			}
			if missing {
				orphans = append(orphans, img)
				continue
			}
			known.add(dir, img.FileID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan images: %w", err)
	}

	if !opts.FilesOnly {
		c.cleanRecords(ctx, orphans, opts.DryRun, report)
	} else {
		// 不处理记录时，这些记录引用的缩略图不能被当作孤儿文件
		for _, img := range orphans {
			known.add(img.UserContent.Directory, img.FileID)
		}
	}

	if !opts.RecordsOnly {
		if err := c.cleanFiles(ctx, known, opts.DryRun, report); err != nil {
			return report, err
		}
	}

	logger.Info("Cleanup finished",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("orphan_records", len(report.OrphanRecords)),
		zap.Int64("deleted_records", report.DeletedRecords),
		zap.Int("orphan_files", len(report.OrphanFiles)),
		zap.Int("deleted_files", report.DeletedFiles),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

// originalMissing 判断记录的原图是否已不存在，旧记录没有扩展名时按目录列表匹配
func (c *Cleaner) originalMissing(ctx context.Context, img models.ImageContent, listings map[string][]string) (bool, error) {
	dir := img.UserContent.Directory
	if img.Ext != "" {
		exists, err := c.storage.Exists(ctx, c.paths.Generate(dir, img.FileID, img.Ext).OriginalPath)
		return !exists, err
	}

	names, err := c.list(ctx, dir, listings)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if id, _ := c.paths.ParseFileName(name); id == img.FileID {
			return false, nil
		}
	}
	return true, nil
}

func (c *Cleaner) list(ctx context.Context, dir string, listings map[string][]string) ([]string, error) {
	if names, ok := listings[dir]; ok {
		return names, nil
	}
	names, err := c.storage.List(ctx, dir)
	if err != nil && !storage.IsNotFound(err) {
		return nil, err
	}
	listings[dir] = names
	return names, nil
}

func (c *Cleaner) cleanRecords(ctx context.Context, orphans []models.ImageContent, dryRun bool, report *Report) {
	ids := make([]uint, 0, len(orphans))
	for _, img := range orphans {
		report.OrphanRecords = append(report.OrphanRecords, img.FileID)
		ids = append(ids, img.ID)
	}
	if dryRun || len(ids) == 0 {
		return
	}

	deleted, err := c.images.WithContext(ctx).DeleteByIDs(ids)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("delete orphan records: %v", err))
		return
	}
	report.DeletedRecords = deleted

	if c.cache == nil {
		return
	}
	for _, img := range orphans {
		if err := c.cache.InvalidateImage(ctx, img.FileID); err != nil {
			logger.Warn("Failed to invalidate image cache", zap.String("file_id", img.FileID), zap.Error(err))
		}
	}
}

// cleanFiles 删除用户目录及缩略图目录中没有记录的文件
func (c *Cleaner) cleanFiles(ctx context.Context, known directoryIndex, dryRun bool, report *Report) error {
	dirs, err := c.contents.WithContext(ctx).ListDirectories()
	if err != nil {
		return fmt.Errorf("failed to list directories: %w", err)
	}

	for _, dir := range dirs {
		for _, sub := range []string{dir, c.paths.ThumbnailDirectory(dir)} {
			names, err := c.storage.List(ctx, sub)
			if err != nil {
				if storage.IsNotFound(err) {
					continue
				}
				report.Errors = append(report.Errors, fmt.Sprintf("list %s: %v", sub, err))
				continue
			}

			for _, name := range names {
				id, _ := c.paths.ParseFileName(name)
				if known.has(dir, id) {
					continue
				}
				p := path.Join(sub, name)
				report.OrphanFiles = append(report.OrphanFiles, p)
				if dryRun {
					continue
				}
				if err := c.storage.DeleteWithContext(ctx, p); err != nil && !storage.IsNotFound(err) {
					report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", p, err))
					continue
				}
				report.DeletedFiles++
			}
		}
	}
	return nil
}
