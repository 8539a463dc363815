package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/internal/vote"
	"github.com/anoixa/image-gallery/utils"
	"gorm.io/gorm"
)

// QuerySpec 图库查询参数
type QuerySpec struct {
	SortBy   images.SortField
	Order    images.SortOrder
	Page     int
	PageSize int
	Owner    string // 用户名，空表示全部
	Search   string
	Tag      string
}

// Normalize 填充默认值并校验
func (q *QuerySpec) Normalize(defaultSize, maxSize int) error {
	sortBy, ok := images.ParseSortField(string(q.SortBy))
	if !ok {
		return fmt.Errorf("%w: unknown sort field %q", errs.ErrInvalidInput, q.SortBy)
	}
	order, ok := images.ParseSortOrder(string(q.Order))
	if !ok {
		return fmt.Errorf("%w: unknown sort order %q", errs.ErrInvalidInput, q.Order)
	}
	q.SortBy, q.Order = sortBy, order

	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", errs.ErrInvalidInput)
	}

	if defaultSize <= 0 {
		defaultSize = 20
	}
	if maxSize <= 0 {
		maxSize = 100
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultSize
	}
	if q.PageSize > maxSize {
		q.PageSize = maxSize
	}

	q.Owner = strings.TrimSpace(q.Owner)
	q.Search = strings.TrimSpace(q.Search)
	q.Tag = strings.TrimSpace(q.Tag)
	return nil
}

// List 分页查询图库，页码越界返回 ErrNotFound
func (s *Service) List(ctx context.Context, spec QuerySpec) (*ListResult, error) {
	settings := s.gallerySettings(ctx)
	if err := spec.Normalize(settings.PageSize, settings.MaxPageSize); err != nil {
		return nil, err
	}

	repoSpec := images.QuerySpec{
		SortBy:   spec.SortBy,
		Order:    spec.Order,
		Page:     spec.Page,
		PageSize: spec.PageSize,
		Search:   spec.Search,
		Tag:      spec.Tag,
	}

	result := &ListResult{
		Items:    []GalleryItem{},
		Page:     spec.Page,
		PageSize: spec.PageSize,
	}

	if spec.Owner != "" {
		user, err := s.users.WithContext(ctx).GetByUsername(spec.Owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: user %q", errs.ErrNotFound, spec.Owner)
			}
			return nil, fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
		}

		uc, err := s.contents.WithContext(ctx).GetByUserID(user.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 还没有上传过
			if spec.Page > 1 {
				return nil, fmt.Errorf("%w: page %d", errs.ErrNotFound, spec.Page)
			}
			return result, nil
		case err != nil:
			return nil, fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
		}
		repoSpec.UserContentID = uc.ID
	}

	rows, total, err := s.images.WithContext(ctx).List(repoSpec)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list images: %v", errs.ErrPersistenceConflict, err)
	}
	if len(rows) == 0 && spec.Page > 1 {
		return nil, fmt.Errorf("%w: page %d", errs.ErrNotFound, spec.Page)
	}

	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	metrics, err := s.aggregator.MetricsForImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
	}

	for i := range rows {
		result.Items = append(result.Items, s.toGalleryItem(&rows[i], metrics[rows[i].ID]))
	}
	result.Total = total
	result.TotalPages = int((total + int64(spec.PageSize) - 1) / int64(spec.PageSize))
	return result, nil
}

func (s *Service) toGalleryItem(img *models.ImageContent, m vote.Metrics) GalleryItem {
	return GalleryItem{
		Title:        img.Title,
		ImageID:      img.FileID,
		UploadTime:   img.CreatedAt,
		Description:  img.Description,
		Metrics:      m,
		URL:          utils.BuildImageURL(s.baseURL, img.FileID),
		ThumbnailURL: utils.BuildThumbnailURL(s.baseURL, img.FileID),
		Owner:        img.UserContent.User.Username,
		Tags:         img.TagNames(),
	}
}
