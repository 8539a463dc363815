package models

import "time"

const (
	TitleMaxLength       = 100
	DescriptionMaxLength = 255
	TagMaxLength         = 32
	MaxTagsPerImage      = 8
)

// ImageContent 一张已上传的图片
// 文件位于 <UserContent.Directory>/<FileID><Ext>，缩略图位于 <Directory>/thumbnails/<FileID><Ext>
type ImageContent struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	FileID        string    `gorm:"uniqueIndex:idx_image_file_id;size:32;not null" json:"image_id"`
	UserContentID uint      `gorm:"index:idx_image_owner_created,priority:1;not null" json:"-"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Description   string    `gorm:"size:255" json:"description"`
	Ext           string    `gorm:"size:16" json:"-"`
	CreatedAt     time.Time `gorm:"index:idx_image_owner_created,priority:2;index:idx_image_created" json:"upload_time"`
	UpdatedAt     time.Time `json:"-"`

	UserContent UserContent `gorm:"foreignKey:UserContentID" json:"-"`
	Tags        []Tag       `gorm:"many2many:image_tags;" json:"tags,omitempty"`
}

// TagNames 返回标签名列表
func (i *ImageContent) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		names = append(names, t.Name)
	}
	return names
}
