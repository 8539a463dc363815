package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 用户仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建用户仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithContext 返回绑定上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}

// GetByUsername 按用户名查询
func (r *Repository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID 按 ID 查询
func (r *Repository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *Repository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// EnsureUser 令牌中的用户第一次出现时写入用户表，已有记录时不做修改
//
// 用户名已被其他 ID 占用时退回 user-<id>。
func (r *Repository) EnsureUser(id uint, username string) error {
	if id == 0 {
		return fmt.Errorf("user id is required")
	}

	exists, err := r.exists(id)
	if err != nil || exists {
		return err
	}

	fallback := fmt.Sprintf("user-%d", id)
	candidates := []string{fallback}
	if name := strings.TrimSpace(username); name != "" && name != fallback {
		candidates = []string{name, fallback}
	}

	for _, name := range candidates {
		result := r.db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.User{ID: id, Username: name, Role: models.RoleUser})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		// 冲突可能来自并发插入的同一 ID
		if exists, err := r.exists(id); err != nil || exists {
			return err
		}
	}
	return fmt.Errorf("no free username for user %d", id)
}

func (r *Repository) exists(id uint) (bool, error) {
	var n int64
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
