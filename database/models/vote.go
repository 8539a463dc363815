package models

import "time"

const (
	VoteUp   int8 = 1
	VoteDown int8 = -1
)

// VoteCounter 一个用户对一张图片的投票，(user_id, image_content_id) 唯一
type VoteCounter struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	UserID         uint      `gorm:"uniqueIndex:idx_vote_user_image,priority:1;not null"`
	ImageContentID uint      `gorm:"uniqueIndex:idx_vote_user_image,priority:2;index:idx_vote_image;not null"`
	Vote           int8      `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
