package images

import (
	"net/http"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/utils/generator"
	"github.com/gin-gonic/gin"
)

// GetImage 图片详情，包含投票统计与上下张
func (h *Handler) GetImage(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}

	detail, err := h.imageService.GetImage(c.Request.Context(), fileID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccess(c, detail)
}

// GetMetrics 单张图片的投票统计
func (h *Handler) GetMetrics(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}

	metrics, err := h.aggregator.MetricsFor(c.Request.Context(), fileID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	if metrics == nil {
		common.RespondError(c, http.StatusNotFound, "Not found")
		return
	}

	common.RespondSuccess(c, gin.H{
		"image_id": fileID,
		"metrics":  metrics,
	})
}

// fileIDParam 读取并校验路径中的 file_id，格式不对直接按不存在处理
func fileIDParam(c *gin.Context) (string, bool) {
	fileID := c.Param("file_id")
	if !generator.IsValidFileID(fileID) {
		common.RespondError(c, http.StatusNotFound, "Not found")
		return "", false
	}
	return fileID, true
}
