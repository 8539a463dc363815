package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 身份服务签发的用户，首次上传时按令牌中的 ID 与用户名登记
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Role      string    `gorm:"size:32;default:user;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
