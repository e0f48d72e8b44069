package handler

import (
	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

// ApprovalHandler 日志审批 HTTP 处理器
type ApprovalHandler struct {
	approvalSvc service.ApprovalService
}

// NewApprovalHandler 创建 ApprovalHandler
func NewApprovalHandler(approvalSvc service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc}
}

// Approve 审批单条日志
// POST /api/v1/tasks/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	// 请求体可省略
	var req dto.ApproveTaskRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	task, err := h.approvalSvc.Approve(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, task)
}

// BulkApprove 批量审批
// POST /api/v1/tasks/bulk-approve
func (h *ApprovalHandler) BulkApprove(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.approvalSvc.BulkApprove(c.Request.Context(), p, &req)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, result)
}

// ToggleApproval 设置审批状态
// PATCH /api/v1/tasks/:id/approval
func (h *ApprovalHandler) ToggleApproval(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ToggleApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	task, err := h.approvalSvc.Toggle(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, task)
}
