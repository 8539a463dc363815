package images

import (
	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/gorm"
)

// RepositoryInterface 图片仓库接口
type RepositoryInterface interface {
	// CreateWithTx 在指定事务中创建图片记录
	CreateWithTx(tx *gorm.DB, image *models.ImageContent, tags []string) error
	// GetByFileID 通过 file_id 获取图片
	GetByFileID(fileID string) (*models.ImageContent, error)
	// DeleteWithTx 在指定事务中删除图片记录
	DeleteWithTx(tx *gorm.DB, imageID uint) error
	// UpdateTextWithTx 更新标题和描述
	UpdateTextWithTx(tx *gorm.DB, imageID uint, updates map[string]interface{}) error
	// ReplaceTagsWithTx 替换标签
	ReplaceTagsWithTx(tx *gorm.DB, image *models.ImageContent, names []string) error
	// List 按条件分页查询
	List(spec QuerySpec) ([]models.ImageContent, int64, error)
	// Neighbours 前后相邻图片
	Neighbours(image *models.ImageContent) (prev, next *models.ImageContent, err error)
}

// 确保 Repository 实现了 RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
