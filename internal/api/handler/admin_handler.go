package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

// AdminHandler 管理后台 HTTP 处理器
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ListUsers 用户列表
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q dto.AdminUserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.adminSvc.ListUsers(c.Request.Context(), &q)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// UserAction 启用、停用、审核通过或删除用户
// POST /api/v1/admin/users/:id/actions
func (h *AdminHandler) UserAction(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UserActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.adminSvc.UserAction(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, result)
}

// Dashboard 概览
// GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	result, err := h.adminSvc.Dashboard(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// AuditLogs 审计日志
// GET /api/v1/admin/audit-logs
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	var q dto.AuditLogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.adminSvc.AuditLogs(c.Request.Context(), &q)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// CreateInvite 邀请管理员
// POST /api/v1/admin/invites
func (h *AdminHandler) CreateInvite(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.adminSvc.CreateInvite(c.Request.Context(), p, &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.Created(c, result)
}

// ListInvites 邀请列表
// GET /api/v1/admin/invites
func (h *AdminHandler) ListInvites(c *gin.Context) {
	list, err := h.adminSvc.ListInvites(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeleteInvite 撤销邀请
// DELETE /api/v1/admin/invites/:id
func (h *AdminHandler) DeleteInvite(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.adminSvc.DeleteInvite(c.Request.Context(), p, c.Param("id")); err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleAdminError 统一处理管理后台业务错误
func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelfAction):
		response.BadRequest(c, 15001, "不能对自己的账号执行该操作")
	case errors.Is(err, service.ErrUnknownAction):
		response.BadRequest(c, 15002, "不支持的操作")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 15003, "用户不存在")
	case errors.Is(err, service.ErrInviteNotFound):
		response.NotFound(c, 15004, "邀请不存在")
	case errors.Is(err, service.ErrInviteEmailTaken):
		response.Conflict(c, 15005, "该邮箱已注册，无需邀请")
	default:
		response.InternalError(c)
	}
}
