package image

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeleteImage 删除用户自己的图片
//
// 先在一个事务中删除投票、标签关联与记录，提交后再删除文件；文件删除失败只记录日志。
// 不属于该用户的图片按不存在处理。
func (s *Service) DeleteImage(ctx context.Context, userID uint, fileID string) (*DeleteResult, error) {
	img, uc, err := s.ownedImage(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.votes.DeleteByImageWithTx(tx, img.ID); err != nil {
			return err
		}
		return s.images.DeleteWithTx(tx, img.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: image %s", errs.ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("%w: failed to delete image: %v", errs.ErrPersistenceConflict, err)
	}

	if err := s.cache.InvalidateImage(ctx, fileID); err != nil {
		logger.Warn("Failed to invalidate image cache", zap.String("file_id", fileID), zap.Error(err))
	}
	s.removeArtifacts(uc.Directory, img)

	logger.Info("Image deleted", zap.Uint("user_id", userID), zap.String("file_id", fileID))
	return &DeleteResult{Title: img.Title, Directory: uc.Directory}, nil
}

// ownedImage 读取属于该用户的图片，其他情况一律 ErrNotFound
func (s *Service) ownedImage(ctx context.Context, userID uint, fileID string) (*models.ImageContent, *models.UserContent, error) {
	uc, err := s.contents.WithContext(ctx).GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: no content for user %d", errs.ErrNotFound, userID)
		}
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
	}

	img, err := s.images.WithContext(ctx).GetByFileID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: image %s", errs.ErrNotFound, fileID)
		}
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
	}

	if img.UserContentID != uc.ID {
		return nil, nil, fmt.Errorf("%w: image %s", errs.ErrNotFound, fileID)
	}
	return img, uc, nil
}

// removeArtifacts 删除原图与缩略图，没有扩展名的旧记录按 file_id 匹配文件
func (s *Service) removeArtifacts(directory string, img *models.ImageContent) {
	ctx := context.Background()

	if img.Ext != "" {
		ids := s.paths.Generate(directory, img.FileID, img.Ext)
		s.removeFiles([]string{ids.OriginalPath, ids.ThumbnailPath})
		return
	}

	for _, dir := range []string{directory, s.paths.ThumbnailDirectory(directory)} {
		names, err := s.storage.List(ctx, dir)
		if err != nil {
			if !storage.IsNotFound(err) {
				logger.Warn("Failed to list directory", zap.String("directory", dir), zap.Error(err))
			}
			continue
		}
		var matched []string
		for _, name := range names {
			if id, _ := s.paths.ParseFileName(name); id == img.FileID {
				matched = append(matched, path.Join(dir, name))
			}
		}
		s.removeFiles(matched)
	}
}
