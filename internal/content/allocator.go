// Package content 负责为用户分配私有存储目录
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/contents"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils/generator"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Allocator 用户目录分配器
type Allocator struct {
	repo    *contents.Repository
	storage storage.Provider
	paths   *generator.PathGenerator
}

// NewAllocator 创建目录分配器
func NewAllocator(repo *contents.Repository, provider storage.Provider) *Allocator {
	return &Allocator{
		repo:    repo,
		storage: provider,
		paths:   generator.NewPathGenerator(),
	}
}

// ResolveOrCreate 返回用户的存储目录，首次调用时创建
//
// 已有记录时确保目录存在；否则生成随机目录名、创建目录后再插入记录。
// 同一用户并发首次上传时由 user_id 唯一约束收敛，输掉的一方删除自己创建的目录并读取胜者。
func (a *Allocator) ResolveOrCreate(ctx context.Context, userID uint) (*models.UserContent, error) {
	repo := a.repo.WithContext(ctx)

	existing, err := repo.GetByUserID(userID)
	switch {
	case err == nil:
		if err := a.ensureTree(ctx, existing.Directory); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
		}
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: failed to query user content: %v", errs.ErrPersistenceConflict, err)
	}

	directory := a.paths.NewDirectoryID()
	if err := a.ensureTree(ctx, directory); err != nil {
		a.removeTree(directory)
		return nil, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}

	content := &models.UserContent{UserID: userID, Directory: directory}
	created, err := repo.CreateIfAbsent(content)
	if err != nil {
		a.removeTree(directory)
		return nil, fmt.Errorf("%w: failed to create user content: %v", errs.ErrPersistenceConflict, err)
	}

	if created {
		logger.Info("Allocated user directory", zap.Uint("user_id", userID), zap.String("directory", directory))
		return content, nil
	}

	// 并发分配中落败
	a.removeTree(directory)
	winner, err := repo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read concurrent user content: %v", errs.ErrPersistenceConflict, err)
	}
	return winner, nil
}

// ensureTree 创建目录与缩略图子目录
func (a *Allocator) ensureTree(ctx context.Context, directory string) error {
	if err := a.storage.EnsureDir(ctx, directory); err != nil {
		return err
	}
	return a.storage.EnsureDir(ctx, a.paths.ThumbnailDirectory(directory))
}

// removeTree 尽力删除本次调用创建的目录
func (a *Allocator) removeTree(directory string) {
	if err := a.storage.RemoveAll(context.Background(), directory); err != nil {
		logger.Warn("Failed to remove directory", zap.String("directory", directory), zap.Error(err))
	}
}
