package admin

import (
	"net/http"

	"github.com/anoixa/image-gallery/api/common"
	configSvc "github.com/anoixa/image-gallery/config/db"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConfigHandler 运行时配置管理处理器
type ConfigHandler struct {
	manager *configSvc.Manager
}

// NewConfigHandler 创建配置处理器
func NewConfigHandler(manager *configSvc.Manager) *ConfigHandler {
	return &ConfigHandler{
		manager: manager,
	}
}

// updateSettingsRequest 缺省字段沿用当前值
type updateSettingsRequest struct {
	PageSize          *int      `json:"page_size"`
	MaxPageSize       *int      `json:"max_page_size"`
	ThumbnailSize     *int      `json:"thumbnail_size"`
	MaxDimension      *int      `json:"max_dimension"`
	AllowedExtensions *[]string `json:"allowed_extensions"`
}

// GetSettings 当前图库配置
func (h *ConfigHandler) GetSettings(c *gin.Context) {
	settings, err := h.manager.GetGallerySettings(c.Request.Context())
	if err != nil {
		logger.Error("Failed to load gallery settings", zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	common.RespondSuccess(c, settings)
}

// UpdateSettings 修改图库配置，新值对之后的请求生效
func (h *ConfigHandler) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.manager.GetGallerySettings(ctx)
	if err != nil {
		logger.Error("Failed to load gallery settings", zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	if req.PageSize != nil {
		settings.PageSize = *req.PageSize
	}
	if req.MaxPageSize != nil {
		settings.MaxPageSize = *req.MaxPageSize
	}
	if req.ThumbnailSize != nil {
		settings.ThumbnailSize = *req.ThumbnailSize
	}
	if req.MaxDimension != nil {
		settings.MaxDimension = *req.MaxDimension
	}
	if req.AllowedExtensions != nil {
		settings.AllowedExtensions = *req.AllowedExtensions
	}

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.manager.SaveGallerySettings(ctx, settings); err != nil {
		logger.Error("Failed to save gallery settings", zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	common.RespondSuccessMessage(c, "Settings updated", settings)
}
