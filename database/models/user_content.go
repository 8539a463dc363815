package models

import "time"

// UserContent 用户的私有存储目录，首次上传时创建
type UserContent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_content_user;not null" json:"user_id"`
	Directory string    `gorm:"uniqueIndex:idx_user_content_directory;size:64;not null" json:"directory"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
