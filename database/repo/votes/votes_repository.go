package votes

import (
	"context"
	"time"

	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleResult 一次投票对记录的影响
type ToggleResult int

const (
	// ToggleInserted 新增投票
	ToggleInserted ToggleResult = iota + 1
	// ToggleSwitched 改投相反方向
	ToggleSwitched
	// ToggleRemoved 重复同向投票，撤销
	ToggleRemoved
)

// Metrics 单张图片的投票统计
type Metrics struct {
	Total     int64 `json:"total"`
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

const metricsSelect = "COALESCE(SUM(vote), 0) AS total, " +
	"COALESCE(SUM(CASE WHEN vote = 1 THEN 1 ELSE 0 END), 0) AS upvotes, " +
	"COALESCE(SUM(CASE WHEN vote = -1 THEN 1 ELSE 0 END), 0) AS downvotes"

// Repository 投票仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建投票仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithContext 返回绑定上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}

// ToggleWithTx 在事务中执行 删除同向 / 翻转反向 / 插入 三选一
// 依赖 (user_id, image_content_id) 唯一索引，并发插入时由 upsert 收敛为一行
func (r *Repository) ToggleWithTx(tx *gorm.DB, userID, imageID uint, vote int8) (ToggleResult, error) {
	removed := tx.Where("user_id = ? AND image_content_id = ? AND vote = ?", userID, imageID, vote).
		Delete(&models.VoteCounter{})
	if removed.Error != nil {
		return 0, removed.Error
	}
	if removed.RowsAffected > 0 {
		return ToggleRemoved, nil
	}

	switched := tx.Model(&models.VoteCounter{}).
		Where("user_id = ? AND image_content_id = ? AND vote = ?", userID, imageID, -vote).
		Updates(map[string]interface{}{"vote": vote, "updated_at": time.Now()})
	if switched.Error != nil {
		return 0, switched.Error
	}
	if switched.RowsAffected > 0 {
		return ToggleSwitched, nil
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "image_content_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote", "updated_at"}),
	}).Create(&models.VoteCounter{UserID: userID, ImageContentID: imageID, Vote: vote}).Error
	if err != nil {
		return 0, err
	}
	return ToggleInserted, nil
}

// GetVote 查询用户对图片的投票，没有投票返回 0
func (r *Repository) GetVote(userID, imageID uint) (int8, error) {
	var votes []int8
	err := r.db.Model(&models.VoteCounter{}).
		Where("user_id = ? AND image_content_id = ?", userID, imageID).
		Limit(1).
		Pluck("vote", &votes).Error
	if err != nil || len(votes) == 0 {
		return 0, err
	}
	return votes[0], nil
}

// Metrics 统计单张图片，没有投票时全部为 0
func (r *Repository) Metrics(imageID uint) (Metrics, error) {
	var m Metrics
	err := r.db.Model(&models.VoteCounter{}).
		Select(metricsSelect).
		Where("image_content_id = ?", imageID).
		Scan(&m).Error
	return m, err
}

// MetricsForImages 一次查询统计多张图片，未出现的 ID 返回零值
func (r *Repository) MetricsForImages(imageIDs []uint) (map[uint]Metrics, error) {
	result := make(map[uint]Metrics, len(imageIDs))
	if len(imageIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ImageContentID uint
		Metrics
	}
	err := r.db.Model(&models.VoteCounter{}).
		Select("image_content_id, "+metricsSelect).
		Where("image_content_id IN ?", imageIDs).
		Group("image_content_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, id := range imageIDs {
		result[id] = Metrics{}
	}
	for _, row := range rows {
		result[row.ImageContentID] = row.Metrics
	}
	return result, nil
}

// DeleteByImageWithTx 删除图片的全部投票
func (r *Repository) DeleteByImageWithTx(tx *gorm.DB, imageID uint) error {
	return tx.Where("image_content_id = ?", imageID).Delete(&models.VoteCounter{}).Error
}
