package models

import "time"

const (
	// ConfigKeyGallery 图库运行时配置
	ConfigKeyGallery = "gallery"
)

// SystemConfig 通用系统配置表，ConfigJSON 保存 JSON 文本
type SystemConfig struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Key         string    `gorm:"uniqueIndex;size:64;not null" json:"key"`
	ConfigJSON  string    `gorm:"type:text;not null" json:"config_json"`
	Description string    `json:"description"`
}
