package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/anoixa/image-gallery/internal/auth"
	"github.com/anoixa/image-gallery/utils"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
)

// JWTAuth 校验 Bearer 令牌并把用户身份写入上下文
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtService == nil {
			common.RespondErrorAbort(c, http.StatusServiceUnavailable, "Authentication is not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "No Authorization request header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[1] == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Authorization field format error")
			return
		}
		if !strings.EqualFold(parts[0], "Bearer") {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Unsupported authentication scheme")
			return
		}

		claims, err := jwtService.ExtractClaims(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.LogIfDevf("JWT rejected: %v", err)
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// GetUserID 读取已认证的用户 ID
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

// GetUsername 读取已认证的用户名
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsernameKey)
}
