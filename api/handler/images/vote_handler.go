package images

import (
	"net/http"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/api/middleware"
	"github.com/anoixa/image-gallery/internal/vote"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type voteRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// Vote 投票：同方向再投一次为撤销，反方向为改投
func (h *Handler) Vote(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "direction is required")
		return
	}
	dir, err := vote.ParseDirection(req.Direction)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	ctx := c.Request.Context()
	outcome, err := h.ledger.SetVote(ctx, userID, fileID, dir)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	resp := gin.H{
		"image_id": fileID,
		"outcome":  outcome,
	}
	// 投票已提交，统计读取失败不影响结果
	metrics, err := h.aggregator.MetricsFor(ctx, fileID)
	if err != nil {
		logger.Warn("Failed to load metrics after vote", zap.String("file_id", fileID), zap.Error(err))
	} else if metrics != nil {
		resp["metrics"] = metrics
	}

	common.RespondSuccess(c, resp)
}
