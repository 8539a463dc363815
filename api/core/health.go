package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/database"
	"github.com/anoixa/image-gallery/storage"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const healthCheckTimeout = 3 * time.Second

// HealthHandler 健康检查
type HealthHandler struct {
	database database.Provider
	cache    cache.Provider
	storage  storage.Provider
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db database.Provider, cacheProvider cache.Provider, storageProvider storage.Provider) *HealthHandler {
	return &HealthHandler{
		database: db,
		cache:    cacheProvider,
		storage:  storageProvider,
	}
}

// Handle 任一依赖不可用时返回 503
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{
		"database": checkDatabaseHealth(ctx, h.database),
		"cache":    checkCacheHealth(h.cache),
		"storage":  checkStorageHealth(ctx, h.storage),
	}

	httpStatus := http.StatusOK
	status := "ok"
	for _, result := range checks {
		if result != "ok" {
			httpStatus = http.StatusServiceUnavailable
			status = "degraded"
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func checkDatabaseHealth(ctx context.Context, provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}

	if err := provider.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
