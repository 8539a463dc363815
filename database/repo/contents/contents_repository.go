package contents

import (
	"context"

	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 用户存储目录仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithContext 返回绑定上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}

// GetByUserID 查询用户的存储目录
func (r *Repository) GetByUserID(userID uint) (*models.UserContent, error) {
	var content models.UserContent
	if err := r.db.Where("user_id = ?", userID).First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

// CreateIfAbsent 插入记录，user_id 冲突时不做任何事
// 返回 false 表示已有其他调用方写入了记录
func (r *Repository) CreateIfAbsent(content *models.UserContent) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(content)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListDirectories 返回所有目录标识
func (r *Repository) ListDirectories() ([]string, error) {
	var dirs []string
	err := r.db.Model(&models.UserContent{}).Order("id").Pluck("directory", &dirs).Error
	return dirs, err
}
