package core

import (
	"net/http"
	"time"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/api/handler/admin"
	"github.com/anoixa/image-gallery/api/handler/gallery"
	handlerImages "github.com/anoixa/image-gallery/api/handler/images"
	"github.com/anoixa/image-gallery/api/middleware"
	"github.com/anoixa/image-gallery/cache"
	configSvc "github.com/anoixa/image-gallery/config/db"
	"github.com/anoixa/image-gallery/database"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/internal/auth"
	imageSvc "github.com/anoixa/image-gallery/internal/image"
	"github.com/anoixa/image-gallery/internal/vote"
	"github.com/anoixa/image-gallery/storage"
	"github.com/gin-gonic/gin"
)

// uploadWaitTimeout 上传排队的最长等待时间
const uploadWaitTimeout = 5 * time.Second

// ServerVersion 版本信息
type ServerVersion struct {
	Version    string
	CommitHash string
}

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Database      database.Provider
	Storage       storage.Provider
	Cache         cache.Provider
	ConfigManager *configSvc.Manager
	ImageService  *imageSvc.Service
	Ledger        *vote.Ledger
	Aggregator    *vote.Aggregator
	JWTService    *auth.JWTService

	APIRateLimiter   *middleware.IPRateLimiter
	ImageRateLimiter *middleware.IPRateLimiter
	UploadLimiter    *middleware.ConcurrencyLimiter

	ServerVersion ServerVersion
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	// 基础路由
	registerBasicRoutes(router, deps)

	// 公共文件访问
	registerPublicRoutes(router, deps)

	// API 路由
	registerAPIRoutes(router, deps)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.Database, deps.Cache, deps.Storage)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": deps.ServerVersion.Version,
			"commit":  deps.ServerVersion.CommitHash,
		})
	})

	router.GET("/metrics", func(context *gin.Context) {
		metrics := middleware.GetMetrics()
		if deps.UploadLimiter != nil {
			metrics["upload_rejected"] = deps.UploadLimiter.Rejected()
		}
		context.JSON(http.StatusOK, metrics)
	})
}

// registerPublicRoutes 原图与缩略图的公开访问
func registerPublicRoutes(router *gin.Engine, deps *RouterDependencies) {
	imageHandler := handlerImages.NewHandler(deps.ImageService, deps.Ledger, deps.Aggregator)

	publicGroup := router.Group("")
	if deps.ImageRateLimiter != nil {
		publicGroup.Use(deps.ImageRateLimiter.Middleware())
	}
	{
		publicGroup.GET("/images/:file_id", imageHandler.ServeOriginal)
		publicGroup.HEAD("/images/:file_id", imageHandler.ServeOriginal)
		publicGroup.GET("/thumbnails/:file_id", imageHandler.ServeThumbnail)
		publicGroup.HEAD("/thumbnails/:file_id", imageHandler.ServeThumbnail)
	}
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	imageHandler := handlerImages.NewHandler(deps.ImageService, deps.Ledger, deps.Aggregator)
	galleryHandler := gallery.NewHandler(deps.ImageService)
	requireAuth := middleware.JWTAuth(deps.JWTService)

	uploadChain := []gin.HandlerFunc{requireAuth}
	if deps.UploadLimiter != nil {
		uploadChain = append(uploadChain, deps.UploadLimiter.MiddlewareWithBlock(uploadWaitTimeout))
	}
	uploadChain = append(uploadChain, imageHandler.UploadImage)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		v1 := apiGroup.Group("/v1")
		if deps.APIRateLimiter != nil {
			v1.Use(deps.APIRateLimiter.Middleware())
		}
		{
			v1.GET("/gallery", galleryHandler.ListGallery)

			imagesGroup := v1.Group("/images")
			{
				imagesGroup.GET("/:file_id", imageHandler.GetImage)
				imagesGroup.GET("/:file_id/metrics", imageHandler.GetMetrics)

				imagesGroup.POST("", uploadChain...)
				imagesGroup.PATCH("/:file_id", requireAuth, imageHandler.UpdateImage)
				imagesGroup.DELETE("/:file_id", requireAuth, imageHandler.DeleteImage)
				imagesGroup.POST("/:file_id/vote", requireAuth, imageHandler.Vote)
			}

			if deps.ConfigManager != nil {
				registerAdminRoutes(v1, deps, requireAuth)
			}
		}
	}
}

// registerAdminRoutes 注册管理员路由
func registerAdminRoutes(v1 *gin.RouterGroup, deps *RouterDependencies, requireAuth gin.HandlerFunc) {
	configHandler := admin.NewConfigHandler(deps.ConfigManager)
	adminGroup := v1.Group("/admin")
	adminGroup.Use(requireAuth)
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.GET("/settings", configHandler.GetSettings)
		adminGroup.PUT("/settings", configHandler.UpdateSettings)
	}
}
