package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter 限制同时处理的上传请求数
type ConcurrencyLimiter struct {
	name     string
	sem      *semaphore.Weighted
	rejected atomic.Int64
}

// NewConcurrencyLimiter 并发限制器
func NewConcurrencyLimiter(name string, maxConcurrency int64) *ConcurrencyLimiter {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &ConcurrencyLimiter{
		name: name,
		sem:  semaphore.NewWeighted(maxConcurrency),
	}
}

// Rejected 因繁忙被拒绝的请求数
func (cl *ConcurrencyLimiter) Rejected() int64 {
	return cl.rejected.Load()
}

// Middleware 拿不到名额时立即返回 503
func (cl *ConcurrencyLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.sem.TryAcquire(1) {
			cl.reject(c, "Server is busy, please try again later")
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

// MiddlewareWithBlock 最多等待 timeout 再拒绝
func (cl *ConcurrencyLimiter) MiddlewareWithBlock(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := cl.sem.Acquire(ctx, 1); err != nil {
			cl.reject(c, "Request timed out waiting for server resources")
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

func (cl *ConcurrencyLimiter) reject(c *gin.Context, msg string) {
	cl.rejected.Add(1)
	logger.Debug("Concurrency limit reached", zap.String("limiter", cl.name), zap.String("path", c.FullPath()))
	common.RespondErrorAbort(c, http.StatusServiceUnavailable, msg)
}
