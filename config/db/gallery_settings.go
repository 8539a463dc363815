package config

import (
	"fmt"
	"strings"

	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/utils"
)

const (
	// MinThumbnailSize 缩略图最小边长
	MinThumbnailSize = 16
	// MaxThumbnailSize 缩略图最大边长
	MaxThumbnailSize = 2048

	// MinImageDimension 上传图片边长上限的可选下界
	MinImageDimension = 64
	// MaxImageDimension 上传图片边长上限的可选上界
	MaxImageDimension = 16384
)

// supportedExtensions 可以出现在白名单里的扩展名
var supportedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {},
}

// GallerySettings 图库运行时配置
type GallerySettings struct {
	PageSize          int      `json:"page_size" mapstructure:"page_size"`                   // 默认每页数量
	MaxPageSize       int      `json:"max_page_size" mapstructure:"max_page_size"`           // 每页上限
	ThumbnailSize     int      `json:"thumbnail_size" mapstructure:"thumbnail_size"`         // 缩略图边长
	AllowedExtensions []string `json:"allowed_extensions" mapstructure:"allowed_extensions"` // 上传白名单
	MaxDimension      int      `json:"max_dimension" mapstructure:"max_dimension"`           // 上传图片宽高上限
}

// DefaultGallerySettings 由静态配置生成默认值
func DefaultGallerySettings(cfg *config.Config) GallerySettings {
	s := GallerySettings{
		PageSize:      20,
		MaxPageSize:   100,
		ThumbnailSize: 240,
		MaxDimension:  8192,
		AllowedExtensions: []string{
			".jpg", ".jpeg", ".png",
		},
	}
	if cfg == nil {
		return s
	}

	if cfg.GalleryPageSize > 0 {
		s.PageSize = cfg.GalleryPageSize
	}
	if cfg.GalleryMaxPageSize > 0 {
		s.MaxPageSize = cfg.GalleryMaxPageSize
	}
	if cfg.GalleryThumbnailSize > 0 {
		s.ThumbnailSize = cfg.GalleryThumbnailSize
	}
	if cfg.GalleryMaxDimension > 0 {
		s.MaxDimension = cfg.GalleryMaxDimension
	}
	if exts := SplitExtensions(cfg.GalleryAllowedExtension); len(exts) > 0 {
		s.AllowedExtensions = exts
	}
	return s
}

// SplitExtensions 解析逗号分隔的扩展名列表
func SplitExtensions(raw string) []string {
	var exts []string
	for _, part := range strings.Split(raw, ",") {
		if ext := utils.NormalizeExtension(part); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Normalize 统一扩展名格式并去重
func (s *GallerySettings) Normalize() {
	seen := make(map[string]struct{}, len(s.AllowedExtensions))
	exts := make([]string, 0, len(s.AllowedExtensions))
	for _, ext := range s.AllowedExtensions {
		ext = utils.NormalizeExtension(ext)
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	s.AllowedExtensions = exts
}

// Validate 校验配置取值范围
func (s *GallerySettings) Validate() error {
	if s.PageSize < 1 {
		return fmt.Errorf("page_size must be positive")
	}
	if s.MaxPageSize < s.PageSize {
		return fmt.Errorf("max_page_size must be >= page_size")
	}
	if s.ThumbnailSize < MinThumbnailSize || s.ThumbnailSize > MaxThumbnailSize {
		return fmt.Errorf("thumbnail_size must be between %d and %d", MinThumbnailSize, MaxThumbnailSize)
	}
	if s.MaxDimension < MinImageDimension || s.MaxDimension > MaxImageDimension {
		return fmt.Errorf("max_dimension must be between %d and %d", MinImageDimension, MaxImageDimension)
	}
	if len(s.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed_extensions must not be empty")
	}
	for _, ext := range s.AllowedExtensions {
		if _, ok := supportedExtensions[ext]; !ok {
			return fmt.Errorf("unsupported extension: %s", ext)
		}
	}
	return nil
}
