package image

import (
	"context"
	"fmt"

	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateImage 编辑标题、描述与标签，不修改文件
func (s *Service) UpdateImage(ctx context.Context, userID uint, fileID string, req UpdateRequest) (*ImageDetail, error) {
	title, description := req.Title, req.Description
	var tags []string
	if req.Tags != nil {
		tags = images.NormalizeTags(*req.Tags)
	}
	if err := validateFields(title, description, tags); err != nil {
		return nil, err
	}

	img, _, err := s.ownedImage(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{}, 2)
	if title != nil {
		updates["title"] = *title
	}
	if description != nil {
		updates["description"] = *description
	}

	if len(updates) > 0 || req.Tags != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.images.UpdateTextWithTx(tx, img.ID, updates); err != nil {
				return err
			}
			if req.Tags != nil {
				return s.images.ReplaceTagsWithTx(tx, img, tags)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to update image: %v", errs.ErrPersistenceConflict, err)
		}

		if err := s.cache.DeleteCachedImage(ctx, fileID); err != nil {
			logger.Warn("Failed to invalidate image cache", zap.String("file_id", fileID), zap.Error(err))
		}
	}

	return s.GetImage(ctx, fileID)
}
