package configs

import (
	"context"
	"time"

	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 配置仓库接口
type Repository interface {
	GetByKey(ctx context.Context, key string) (*models.SystemConfig, error)
	Upsert(ctx context.Context, config *models.SystemConfig) error
}

// ConfigRepository 配置仓库实现
type ConfigRepository struct {
	db *gorm.DB
}

var _ Repository = (*ConfigRepository)(nil)

// NewRepository 创建配置仓库
func NewRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetByKey 根据Key获取配置
func (r *ConfigRepository) GetByKey(ctx context.Context, key string) (*models.SystemConfig, error) {
	var config models.SystemConfig
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// Upsert 按 Key 创建或覆盖配置
func (r *ConfigRepository) Upsert(ctx context.Context, config *models.SystemConfig) error {
	config.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_json", "description", "updated_at"}),
	}).Create(config).Error
}
