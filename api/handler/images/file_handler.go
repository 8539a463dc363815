package images

import (
	"context"
	"net/http"

	"github.com/anoixa/image-gallery/api/common"
	imageSvc "github.com/anoixa/image-gallery/internal/image"
	"github.com/gin-gonic/gin"
)

type openFunc func(ctx context.Context, fileID string) (*imageSvc.Artifact, error)

// ServeOriginal 公开访问原图
func (h *Handler) ServeOriginal(c *gin.Context) {
	h.serveArtifact(c, h.imageService.OpenOriginal)
}

// ServeThumbnail 公开访问缩略图
func (h *Handler) ServeThumbnail(c *gin.Context) {
	h.serveArtifact(c, h.imageService.OpenThumbnail)
}

func (h *Handler) serveArtifact(c *gin.Context, open openFunc) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}

	artifact, err := open(c.Request.Context(), fileID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	defer func() { _ = artifact.Reader.Close() }()

	c.Header("Content-Type", artifact.ContentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, artifact.Name, artifact.ModTime, artifact.Reader)
}
