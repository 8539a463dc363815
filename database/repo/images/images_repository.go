package images

import (
	"context"
	"errors"
	"strings"

	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 图片仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的图片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithContext 返回绑定上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}

// DB 返回底层连接，用于开启事务
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// CreateWithTx 在指定事务中创建图片记录及其标签
func (r *Repository) CreateWithTx(tx *gorm.DB, image *models.ImageContent, tags []string) error {
	if err := tx.Omit(clause.Associations).Create(image).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	return r.ReplaceTagsWithTx(tx, image, tags)
}

// GetByFileID 通过 file_id 获取图片（含所属目录、用户与标签）
func (r *Repository) GetByFileID(fileID string) (*models.ImageContent, error) {
	var image models.ImageContent
	err := r.db.
		Preload("UserContent.User").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Where("file_id = ?", fileID).
		First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByFileIDWithTx 在事务中按 file_id 加锁读取
func (r *Repository) GetByFileIDWithTx(tx *gorm.DB, fileID string) (*models.ImageContent, error) {
	var image models.ImageContent
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("file_id = ?", fileID).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByFileIDForShareWithTx 在事务中按 file_id 加共享锁读取，阻止并发删除
func (r *Repository) GetByFileIDForShareWithTx(tx *gorm.DB, fileID string) (*models.ImageContent, error) {
	var image models.ImageContent
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("file_id = ?", fileID).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetIDByFileID 只查询主键
func (r *Repository) GetIDByFileID(fileID string) (uint, error) {
	var image models.ImageContent
	if err := r.db.Select("id").Where("file_id = ?", fileID).First(&image).Error; err != nil {
		return 0, err
	}
	return image.ID, nil
}

// ExistsByFileID 检查 file_id 是否已存在
func (r *Repository) ExistsByFileID(fileID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ImageContent{}).Where("file_id = ?", fileID).Count(&count).Error
	return count > 0, err
}

// DeleteWithTx 删除图片记录与标签关联，投票由调用方在同一事务中删除
func (r *Repository) DeleteWithTx(tx *gorm.DB, imageID uint) error {
	if err := tx.Where("image_content_id = ?", imageID).Delete(&models.ImageTag{}).Error; err != nil {
		return err
	}
	result := tx.Where("id = ?", imageID).Delete(&models.ImageContent{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateTextWithTx 更新标题和描述
func (r *Repository) UpdateTextWithTx(tx *gorm.DB, imageID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&models.ImageContent{}).Where("id = ?", imageID).Updates(updates).Error
}

// ReplaceTagsWithTx 替换图片标签，不存在的标签会被创建
func (r *Repository) ReplaceTagsWithTx(tx *gorm.DB, image *models.ImageContent, names []string) error {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range NormalizeTags(names) {
		tags = append(tags, models.Tag{Name: name})
	}

	if len(tags) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&tags).Error; err != nil {
			return err
		}
		// 冲突时 ID 不会回填，重新读取
		var stored []models.Tag
		if err := tx.Where("name IN ?", tagNames(tags)).Find(&stored).Error; err != nil {
			return err
		}
		tags = stored
	}

	if err := tx.Where("image_content_id = ?", image.ID).Delete(&models.ImageTag{}).Error; err != nil {
		return err
	}
	links := make([]models.ImageTag, 0, len(tags))
	for _, tag := range tags {
		links = append(links, models.ImageTag{ImageContentID: image.ID, TagID: tag.ID})
	}
	if len(links) > 0 {
		if err := tx.Create(&links).Error; err != nil {
			return err
		}
	}
	image.Tags = tags
	return nil
}

// Neighbours 按上传顺序返回前一张和后一张图片
func (r *Repository) Neighbours(image *models.ImageContent) (prev, next *models.ImageContent, err error) {
	var p, n models.ImageContent

	err = r.db.Where("id < ?", image.ID).Order("id DESC").Limit(1).Take(&p).Error
	switch {
	case err == nil:
		prev = &p
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}

	err = r.db.Where("id > ?", image.ID).Order("id ASC").Limit(1).Take(&n).Error
	switch {
	case err == nil:
		next = &n
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}

	return prev, next, nil
}

// FindInBatches 分批遍历全部图片，用于清理任务
func (r *Repository) FindInBatches(batchSize int, fn func(batch []models.ImageContent) error) error {
	var batch []models.ImageContent
	return r.db.Preload("UserContent").FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

// DeleteByIDs 批量删除图片及其投票和标签（清理孤儿记录）
func (r *Repository) DeleteByIDs(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_content_id IN ?", ids).Delete(&models.VoteCounter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("image_content_id IN ?", ids).Delete(&models.ImageTag{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.ImageContent{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// NormalizeTags 标签统一小写去重，保留原顺序
func NormalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
