package images

import (
	"fmt"
	"strings"

	"github.com/anoixa/image-gallery/database/models"
	"gorm.io/gorm"
)

// SortField 排序字段
type SortField string

// SortOrder 排序方向
type SortOrder string

const (
	SortByUploadTime SortField = "upload_time"
	SortByScore      SortField = "score"

	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// QuerySpec 图库查询条件
type QuerySpec struct {
	SortBy   SortField
	Order    SortOrder
	Page     int
	PageSize int

	// UserContentID 非零时只查询该目录下的图片
	UserContentID uint
	// Search 标题或标签名子串，忽略大小写
	Search string
	// Tag 精确匹配的标签名
	Tag string
}

// Offset 当前页偏移量
func (q QuerySpec) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// ParseSortField 解析排序字段，空值按上传时间
func ParseSortField(s string) (SortField, bool) {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByUploadTime, "time", "new":
		return SortByUploadTime, true
	case SortByScore, "votes", "top":
		return SortByScore, true
	}
	return "", false
}

// ParseSortOrder 解析排序方向，空值按降序
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderDesc:
		return OrderDesc, true
	case OrderAsc:
		return OrderAsc, true
	}
	return "", false
}

// ApplyFilters 根据 QuerySpec 添加过滤条件
func ApplyFilters(db *gorm.DB, spec QuerySpec) *gorm.DB {
	if spec.UserContentID != 0 {
		db = db.Where("image_contents.user_content_id = ?", spec.UserContentID)
	}

	if search := strings.TrimSpace(spec.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		db = db.Where(
			`(LOWER(image_contents.title) LIKE ? ESCAPE '\' OR EXISTS (
				SELECT 1 FROM image_tags JOIN tags ON tags.id = image_tags.tag_id
				WHERE image_tags.image_content_id = image_contents.id AND tags.name LIKE ? ESCAPE '\'))`,
			pattern, pattern,
		)
	}

	if tag := strings.ToLower(strings.TrimSpace(spec.Tag)); tag != "" {
		db = db.Where(
			`EXISTS (SELECT 1 FROM image_tags JOIN tags ON tags.id = image_tags.tag_id
				WHERE image_tags.image_content_id = image_contents.id AND tags.name = ?)`,
			tag,
		)
	}

	return db
}

// ApplyOrdering 根据 QuerySpec 添加排序
//
// 按分数排序时左连接投票表并求和；没有投票的图片按 0 分参与排序，
// 同分时未投票的图片在升序中排在最前，在降序中排在最后。
func ApplyOrdering(db *gorm.DB, spec QuerySpec) *gorm.DB {
	dir := "DESC"
	if spec.Order == OrderAsc {
		dir = "ASC"
	}

	switch spec.SortBy {
	case SortByScore:
		return db.
			Select("image_contents.*").
			Joins("LEFT JOIN vote_counters ON vote_counters.image_content_id = image_contents.id").
			Group("image_contents.id").
			Order(fmt.Sprintf("COALESCE(SUM(vote_counters.vote), 0) %s", dir)).
			Order(fmt.Sprintf("CASE WHEN COUNT(vote_counters.id) = 0 THEN 0 ELSE 1 END %s", dir)).
			Order(fmt.Sprintf("image_contents.id %s", dir))
	default:
		return db.
			Order(fmt.Sprintf("image_contents.created_at %s", dir)).
			Order(fmt.Sprintf("image_contents.id %s", dir))
	}
}

// ApplyQuerySpec 过滤、排序与分页
func ApplyQuerySpec(db *gorm.DB, spec QuerySpec) *gorm.DB {
	db = ApplyOrdering(ApplyFilters(db, spec), spec)
	if spec.PageSize > 0 {
		db = db.Offset(spec.Offset()).Limit(spec.PageSize)
	}
	return db
}

// List 按 QuerySpec 查询一页图片及总数
func (r *Repository) List(spec QuerySpec) ([]models.ImageContent, int64, error) {
	var total int64
	if err := ApplyFilters(r.db.Model(&models.ImageContent{}), spec).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.ImageContent
	if total == 0 {
		return items, 0, nil
	}

	err := ApplyQuerySpec(r.db.Model(&models.ImageContent{}), spec).
		Preload("UserContent.User").
		Preload("Tags").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
