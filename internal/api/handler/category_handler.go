package handler

import (
	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

// CategoryHandler 任务分类 HTTP 处理器
type CategoryHandler struct {
	categorySvc service.CategoryService
}

// NewCategoryHandler 创建 CategoryHandler
func NewCategoryHandler(categorySvc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categorySvc: categorySvc}
}

// ListCategories 启用中的分类
// GET /api/v1/tasks/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	list, err := h.categorySvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateCategory 新建分类；同名分类已存在时返回已有分类（200）
// POST /api/v1/tasks/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	category, created, err := h.categorySvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	if created {
		response.Created(c, category)
		return
	}
	response.OK(c, category)
}
