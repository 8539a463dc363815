package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// imageMeta 缓存的图片元数据，不含投票统计
type imageMeta struct {
	ID          uint      `json:"id"`
	FileID      string    `json:"file_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Ext         string    `json:"ext"`
	Directory   string    `json:"directory"`
	Owner       string    `json:"owner"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// loadMeta 先查缓存，未命中时合并并发查询
func (s *Service) loadMeta(ctx context.Context, fileID string) (*imageMeta, error) {
	var cached imageMeta
	if err := s.cache.GetCachedImage(ctx, fileID, &cached); err == nil {
		return &cached, nil
	} else if !cache.IsCacheMiss(err) {
		logger.Warn("Failed to read image cache", zap.String("file_id", fileID), zap.Error(err))
	}

	v, err, _ := s.metaGroup.Do(fileID, func() (interface{}, error) {
		img, err := s.images.WithContext(ctx).GetByFileID(fileID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: image %s", errs.ErrNotFound, fileID)
			}
			return nil, fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
		}

		meta := &imageMeta{
			ID:          img.ID,
			FileID:      img.FileID,
			Title:       img.Title,
			Description: img.Description,
			Ext:         img.Ext,
			Directory:   img.UserContent.Directory,
			Owner:       img.UserContent.User.Username,
			Tags:        img.TagNames(),
			CreatedAt:   img.CreatedAt,
			UpdatedAt:   img.UpdatedAt,
		}
		if err := s.cache.CacheImage(ctx, fileID, meta); err != nil {
			logger.Warn("Failed to cache image", zap.String("file_id", fileID), zap.Error(err))
		}
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*imageMeta), nil
}

// GetImage 图片详情，含投票统计与上下张
func (s *Service) GetImage(ctx context.Context, fileID string) (*ImageDetail, error) {
	meta, err := s.loadMeta(ctx, fileID)
	if err != nil {
		return nil, err
	}

	m, err := s.aggregator.MetricsFor(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
	}
	if m == nil {
		// 读取元数据后被删除
		_ = s.cache.InvalidateImage(ctx, fileID)
		return nil, fmt.Errorf("%w: image %s", errs.ErrNotFound, fileID)
	}

	prev, next, err := s.neighbours(ctx, meta)
	if err != nil {
		return nil, err
	}

	return &ImageDetail{
		GalleryItem: GalleryItem{
			Title:        meta.Title,
			ImageID:      meta.FileID,
			UploadTime:   meta.CreatedAt,
			Description:  meta.Description,
			Metrics:      *m,
			URL:          utils.BuildImageURL(s.baseURL, meta.FileID),
			ThumbnailURL: utils.BuildThumbnailURL(s.baseURL, meta.FileID),
			Owner:        meta.Owner,
			Tags:         meta.Tags,
		},
		Prev: prev,
		Next: next,
	}, nil
}

// Neighbours 按上传顺序返回前一张和后一张图片的 file_id，没有时为空串
func (s *Service) Neighbours(ctx context.Context, fileID string) (prev, next string, err error) {
	meta, err := s.loadMeta(ctx, fileID)
	if err != nil {
		return "", "", err
	}
	return s.neighbours(ctx, meta)
}

func (s *Service) neighbours(ctx context.Context, meta *imageMeta) (string, string, error) {
	p, n, err := s.images.WithContext(ctx).Neighbours(&models.ImageContent{ID: meta.ID})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
	}
	var prev, next string
	if p != nil {
		prev = p.FileID
	}
	if n != nil {
		next = n.FileID
	}
	return prev, next, nil
}

// OpenOriginal 打开原图
func (s *Service) OpenOriginal(ctx context.Context, fileID string) (*Artifact, error) {
	return s.open(ctx, fileID, false)
}

// OpenThumbnail 打开缩略图
func (s *Service) OpenThumbnail(ctx context.Context, fileID string) (*Artifact, error) {
	return s.open(ctx, fileID, true)
}

func (s *Service) open(ctx context.Context, fileID string, thumbnail bool) (*Artifact, error) {
	meta, err := s.loadMeta(ctx, fileID)
	if err != nil {
		return nil, err
	}

	ext := meta.Ext
	if ext == "" {
		if ext, err = s.discoverExt(ctx, meta.Directory, fileID); err != nil {
			return nil, err
		}
	}

	ids := s.paths.Generate(meta.Directory, fileID, ext)
	p := ids.OriginalPath
	if thumbnail {
		p = ids.ThumbnailPath
	}

	rc, err := s.storage.GetWithContext(ctx, p)
	if err != nil {
		if storage.IsNotFound(err) {
			logger.Warn("Image file missing", zap.String("file_id", fileID), zap.String("path", p))
			return nil, fmt.Errorf("%w: file for %s", errs.ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}

	return &Artifact{
		Reader:      rc,
		Name:        fileID + ext,
		ContentType: utils.GetMimeForExtension(ext),
		ModTime:     meta.CreatedAt,
	}, nil
}

// discoverExt 旧记录没有扩展名时在目录中按 file_id 查找
func (s *Service) discoverExt(ctx context.Context, directory, fileID string) (string, error) {
	names, err := s.storage.List(ctx, directory)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", fmt.Errorf("%w: directory for %s", errs.ErrNotFound, fileID)
		}
		return "", fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}
	for _, name := range names {
		if id, ext := s.paths.ParseFileName(name); id == fileID {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: file for %s", errs.ErrNotFound, fileID)
}
