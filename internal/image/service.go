// Package image 图片的上传、查询、编辑与删除
package image

import (
	"context"
	"io"
	"time"

	"github.com/anoixa/image-gallery/cache"
	configSvc "github.com/anoixa/image-gallery/config/db"
	"github.com/anoixa/image-gallery/database/repo/contents"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/database/repo/users"
	"github.com/anoixa/image-gallery/database/repo/votes"
	"github.com/anoixa/image-gallery/internal/content"
	"github.com/anoixa/image-gallery/internal/vote"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils/generator"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// IngestRequest 上传请求，调用方已完成身份校验
type IngestRequest struct {
	UserID      uint
	Username    string
	Reader      io.Reader
	Filename    string
	Title       string
	Description string
	Tags        []string
}

// UpdateRequest 编辑请求，nil 字段保持不变
type UpdateRequest struct {
	Title       *string
	Description *string
	Tags        *[]string
}

// GalleryItem 图库列表项
type GalleryItem struct {
	Title        string       `json:"title"`
	ImageID      string       `json:"image_id"`
	UploadTime   time.Time    `json:"upload_time"`
	Description  string       `json:"description"`
	Metrics      vote.Metrics `json:"metrics"`
	URL          string       `json:"url"`
	ThumbnailURL string       `json:"thumbnail_url"`
	Owner        string       `json:"owner"`
	Tags         []string     `json:"tags"`
}

// ListResult 一页图库结果
type ListResult struct {
	Items      []GalleryItem `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// ImageDetail 图片详情，附带上下张
type ImageDetail struct {
	GalleryItem
	Prev string `json:"prev,omitempty"`
	Next string `json:"next,omitempty"`
}

// DeleteResult 删除结果
type DeleteResult struct {
	Title     string `json:"title"`
	Directory string `json:"-"`
}

// Artifact 可流式读取的图片文件
type Artifact struct {
	Reader      io.ReadSeekCloser
	Name        string
	ContentType string
	ModTime     time.Time
}

// Service 图片服务
type Service struct {
	db         *gorm.DB
	images     *images.Repository
	users      *users.Repository
	contents   *contents.Repository
	votes      *votes.Repository
	allocator  *content.Allocator
	aggregator *vote.Aggregator
	storage    storage.Provider
	settings   *configSvc.Manager
	cache      *cache.Helper
	paths      *generator.PathGenerator
	metaGroup  singleflight.Group

	baseURL        string
	maxUploadBytes int64
}

// NewService 创建图片服务
func NewService(
	db *gorm.DB,
	provider storage.Provider,
	allocator *content.Allocator,
	aggregator *vote.Aggregator,
	settings *configSvc.Manager,
	cacheHelper *cache.Helper,
	baseURL string,
	maxUploadBytes int64,
) *Service {
	return &Service{
		db:             db,
		images:         images.NewRepository(db),
		users:          users.NewRepository(db),
		contents:       contents.NewRepository(db),
		votes:          votes.NewRepository(db),
		allocator:      allocator,
		aggregator:     aggregator,
		storage:        provider,
		settings:       settings,
		cache:          cacheHelper,
		paths:          generator.NewPathGenerator(),
		baseURL:        baseURL,
		maxUploadBytes: maxUploadBytes,
	}
}

// gallerySettings 读取运行时配置，失败时退回默认值
func (s *Service) gallerySettings(ctx context.Context) configSvc.GallerySettings {
	settings, err := s.settings.GetGallerySettings(ctx)
	if err != nil {
		logger.Warn("Failed to load gallery settings, using defaults", zap.Error(err))
		return s.settings.Defaults()
	}
	return settings
}
