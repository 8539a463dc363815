package images

import (
	"net/http"
	"strings"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/api/middleware"
	imageSvc "github.com/anoixa/image-gallery/internal/image"
	"github.com/anoixa/image-gallery/utils"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadImage 上传单张图片
func (h *Handler) UploadImage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			common.RespondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer func() { _ = file.Close() }()

	record, err := h.imageService.Ingest(c.Request.Context(), imageSvc.IngestRequest{
		UserID:      userID,
		Username:    middleware.GetUsername(c),
		Reader:      file,
		Filename:    fileHeader.Filename,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        splitTags(c.PostForm("tags")),
	})
	if err != nil {
		if utils.IsClientDisconnect(err) {
			logger.Debug("Upload aborted by client", zap.String("filename", utils.SanitizeLogMessage(fileHeader.Filename)))
			c.Abort()
			return
		}
		common.RespondServiceError(c, err)
		return
	}

	logger.Info("Image uploaded",
		zap.String("file_id", record.FileID),
		zap.String("user", utils.SanitizeLogUsername(middleware.GetUsername(c))))

	detail, err := h.imageService.GetImage(c.Request.Context(), record.FileID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.Respond(c, http.StatusCreated, "success", "Image uploaded", detail)
}

// splitTags 解析逗号分隔的标签
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
