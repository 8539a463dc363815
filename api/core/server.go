package core

import (
	"net/http"
	"time"

	"github.com/anoixa/image-gallery/api/middleware"
	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/internal/app"
	"github.com/anoixa/image-gallery/internal/auth"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead 表单字段与边界占用的额外字节
const multipartOverhead = 1 << 20

// NewRouter 创建 gin 引擎并注册全部路由，返回的清理函数停止限流器的后台任务
func NewRouter(cfg *config.Config, container *app.Container) (*gin.Engine, func()) {
	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 上传文件在服务层再做精确的大小校验
	router.MaxMultipartMemory = cfg.UploadMaxBytes()
	router.Use(middleware.MaxBytesReader(cfg.UploadMaxBytes() + multipartOverhead))

	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	imageRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitImageRPS, cfg.RateLimitImageBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		imageRateLimiter.StopCleanup()
	}

	jwtService, err := auth.NewJWTService(cfg.JWTSecret)
	if err != nil {
		// 没有密钥时只读接口照常可用，需要身份的接口返回 503
		logger.Warn("JWT verification disabled", zap.Error(err))
		jwtService = nil
	}

	RegisterRoutes(router, &RouterDependencies{
		Database:         container.GetDatabaseProvider(),
		Storage:          container.GetStorage(),
		Cache:            container.GetCache(),
		ConfigManager:    container.GetConfigManager(),
		ImageService:     container.GetImageService(),
		Ledger:           container.GetLedger(),
		Aggregator:       container.GetAggregator(),
		JWTService:       jwtService,
		APIRateLimiter:   apiRateLimiter,
		ImageRateLimiter: imageRateLimiter,
		UploadLimiter:    middleware.NewConcurrencyLimiter("upload", cfg.ServerMaxInFlight),
		ServerVersion: ServerVersion{
			Version:    config.Version,
			CommitHash: config.CommitHash,
		},
	})

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(cfg *config.Config, container *app.Container) (*http.Server, func()) {
	router, clean := NewRouter(cfg, container)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
