package middleware

import (
	"net/http"
	"slices"

	"github.com/anoixa/image-gallery/api/common"
	"github.com/gin-gonic/gin"
)

// GetRole 获取 JWTAuth 写入的角色
func GetRole(c *gin.Context) (string, bool) {
	role, ok := c.Get(ContextRoleKey)
	if !ok {
		return "", false
	}
	s, ok := role.(string)
	return s, ok
}

// RequireRole 必须放在 JWTAuth 之后
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			common.RespondErrorAbort(c, http.StatusForbidden, "Access denied")
			return
		}
		if !slices.Contains(allowedRoles, role) {
			common.RespondErrorAbort(c, http.StatusForbidden, "Access denied. Insufficient role.")
			return
		}
		c.Next()
	}
}
