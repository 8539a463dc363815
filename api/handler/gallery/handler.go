// Package gallery 图库浏览接口
package gallery

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/database/repo/images"
	imageSvc "github.com/anoixa/image-gallery/internal/image"
	"github.com/gin-gonic/gin"
)

// Handler 图库处理器
type Handler struct {
	imageService *imageSvc.Service
}

// NewHandler 创建图库处理器
func NewHandler(imageService *imageSvc.Service) *Handler {
	return &Handler{imageService: imageService}
}

// ListGallery 分页浏览、搜索图库
//
// 查询参数：sort_by（upload_time | score）、order（asc | desc）、page、page_size、
// q（标题或描述关键字）、tag、user（上传者用户名）。
func (h *Handler) ListGallery(c *gin.Context) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := intQuery(c, "page_size", 0)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.imageService.List(c.Request.Context(), imageSvc.QuerySpec{
		SortBy:   images.SortField(c.Query("sort_by")),
		Order:    images.SortOrder(c.Query("order")),
		Page:     page,
		PageSize: pageSize,
		Owner:    c.Query("user"),
		Search:   c.Query("q"),
		Tag:      c.Query("tag"),
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return v, nil
}
