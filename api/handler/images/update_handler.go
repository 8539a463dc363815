package images

import (
	"net/http"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/api/middleware"
	imageSvc "github.com/anoixa/image-gallery/internal/image"
	"github.com/gin-gonic/gin"
)

// updateImageRequest 编辑请求，缺省字段保持不变
type updateImageRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

// UpdateImage 编辑自己的图片
func (h *Handler) UpdateImage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}

	var req updateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == nil && req.Description == nil && req.Tags == nil {
		common.RespondError(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	detail, err := h.imageService.UpdateImage(c.Request.Context(), userID, fileID, imageSvc.UpdateRequest{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Image updated", detail)
}
