package images

import (
	"net/http"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/api/middleware"
	"github.com/gin-gonic/gin"
)

// DeleteImage 删除自己的图片，连同投票、标签关联和文件
func (h *Handler) DeleteImage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}

	result, err := h.imageService.DeleteImage(c.Request.Context(), userID, fileID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Image deleted", gin.H{
		"image_id": fileID,
		"title":    result.Title,
	})
}
