package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

// PrincipalKey 上下文中 *service.Principal 的键
const PrincipalKey = "principal"

// LoadPrincipal 在 JWTAuth 之后解析调用者身份与档案
func LoadPrincipal(identity service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		role := c.GetString(RoleKey)
		if userID == "" || role == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		p, err := identity.Resolve(c.Request.Context(), userID, role)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPrincipalNotFound):
				response.Unauthorized(c, 10002, "用户不存在或已被删除")
			case errors.Is(err, service.ErrPrincipalStale):
				response.Unauthorized(c, 10006, "账号角色已变更，请重新登录")
			case errors.Is(err, service.ErrAccountDisabled):
				response.Forbidden(c, 10007, "账号已停用")
			default:
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		c.Set(PrincipalKey, p)
		c.Next()
	}
}
