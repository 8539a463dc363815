package images

import (
	imageSvc "github.com/anoixa/image-gallery/internal/image"
	"github.com/anoixa/image-gallery/internal/vote"
)

// Handler 图片处理器
type Handler struct {
	imageService *imageSvc.Service
	ledger       *vote.Ledger
	aggregator   *vote.Aggregator
}

// NewHandler 图片处理器
func NewHandler(imageService *imageSvc.Service, ledger *vote.Ledger, aggregator *vote.Aggregator) *Handler {
	return &Handler{
		imageService: imageService,
		ledger:       ledger,
		aggregator:   aggregator,
	}
}
