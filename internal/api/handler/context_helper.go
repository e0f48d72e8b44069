package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/api/middleware"
	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.UserIDKey)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetPrincipal 提取 LoadPrincipal 注入的调用者
func MustGetPrincipal(c *gin.Context) (*service.Principal, bool) {
	v, exists := c.Get(middleware.PrincipalKey)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	p, ok := v.(*service.Principal)
	if !ok || p == nil || p.UserID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return p, true
}

// tokenInfo 当前 Access Token 的 JTI 与过期时间
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.TokenJTIKey)
	exp, _ := c.Get(middleware.TokenExpKey)
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}

// bindFailed 统一的参数校验失败响应
func bindFailed(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	if details := dto.ValidationDetails(err); details != "" {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", details)
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}
