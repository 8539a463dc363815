package models

// Tag 图片标签
type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	Name string `gorm:"uniqueIndex:idx_tag_name;size:32;not null" json:"name"`
}

// ImageTag image_tags 关联表
type ImageTag struct {
	ImageContentID uint `gorm:"primaryKey"`
	TagID          uint `gorm:"primaryKey;index:idx_image_tag_tag"`
}
