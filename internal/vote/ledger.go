// Package vote 记录用户投票并汇总每张图片的得分
package vote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/database/repo/votes"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Direction 投票方向
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection 解析投票方向
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	}
	return "", fmt.Errorf("%w: direction must be \"up\" or \"down\"", errs.ErrInvalidInput)
}

// value 存储中的投票值
func (d Direction) value() int8 {
	if d == DirectionDown {
		return models.VoteDown
	}
	return models.VoteUp
}

// Outcome 一次投票的结果
type Outcome string

const (
	// OutcomeRecorded 之前没有投票，新增
	OutcomeRecorded Outcome = "recorded"
	// OutcomeSwitched 之前是相反方向，已改投
	OutcomeSwitched Outcome = "switched"
	// OutcomeRemoved 之前是相同方向，已撤销
	OutcomeRemoved Outcome = "removed"
)

var outcomes = map[votes.ToggleResult]Outcome{
	votes.ToggleInserted: OutcomeRecorded,
	votes.ToggleSwitched: OutcomeSwitched,
	votes.ToggleRemoved:  OutcomeRemoved,
}

// Ledger 投票账本
type Ledger struct {
	db     *gorm.DB
	images *images.Repository
	votes  *votes.Repository
	cache  *cache.Helper
}

// NewLedger 创建投票账本
func NewLedger(db *gorm.DB, imageRepo *images.Repository, voteRepo *votes.Repository, cacheHelper *cache.Helper) *Ledger {
	return &Ledger{
		db:     db,
		images: imageRepo,
		votes:  voteRepo,
		cache:  cacheHelper,
	}
}

// SetVote 按切换语义记录投票
//
// 同方向再次投票视为撤销，反方向视为改投，否则新增。整个过程在一个事务内完成。
func (l *Ledger) SetVote(ctx context.Context, userID uint, fileID string, dir Direction) (Outcome, error) {
	if dir != DirectionUp && dir != DirectionDown {
		return "", fmt.Errorf("%w: unknown direction %q", errs.ErrInvalidInput, dir)
	}

	var result votes.ToggleResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		image, err := l.images.GetByFileIDForShareWithTx(tx, fileID)
		if err != nil {
			return err
		}

		result, err = l.votes.ToggleWithTx(tx, userID, image.ID, dir.value())
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: image %s", errs.ErrNotFound, fileID)
		}
		return "", fmt.Errorf("%w: failed to record vote: %v", errs.ErrPersistenceConflict, err)
	}

	if err := l.cache.DeleteCachedMetrics(ctx, fileID); err != nil {
		logger.Warn("Failed to invalidate metrics cache", zap.String("file_id", fileID), zap.Error(err))
	}

	outcome := outcomes[result]
	logger.Debug("Vote recorded",
		zap.Uint("user_id", userID),
		zap.String("file_id", fileID),
		zap.String("direction", string(dir)),
		zap.String("outcome", string(outcome)))
	return outcome, nil
}
