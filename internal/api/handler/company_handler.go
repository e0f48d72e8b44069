package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

// CompanyHandler 实习单位 HTTP 处理器
type CompanyHandler struct {
	companySvc service.CompanyService
}

// NewCompanyHandler 创建 CompanyHandler
func NewCompanyHandler(companySvc service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companySvc: companySvc}
}

// ListCompanies 实习单位列表
// GET /api/v1/companies
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	list, err := h.companySvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetCompany 实习单位详情
// GET /api/v1/companies/:id
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	company, err := h.companySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, company)
}

// CreateCompany 登记实习单位
// POST /api/v1/companies
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	company, err := h.companySvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.Created(c, company)
}

// handleProfileError 统一处理单位、档案与指导关系的业务错误
func handleProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCompanyNotFound):
		response.NotFound(c, 14001, "实习单位不存在")
	case errors.Is(err, service.ErrCompanyExists):
		response.Conflict(c, 14002, "同名实习单位已存在")
	case errors.Is(err, service.ErrCompanyForbidden):
		response.Forbidden(c, 14003, "只有学生或企业导师可以登记实习单位")
	case errors.Is(err, service.ErrProfileRoleMismatch):
		response.Forbidden(c, 14004, "当前角色不能使用该档案")
	case errors.Is(err, service.ErrProfileExists):
		response.Conflict(c, 14005, "档案已存在")
	case errors.Is(err, service.ErrProfileNotFound):
		response.NotFound(c, 14006, "档案不存在，请先完善档案")
	case errors.Is(err, service.ErrRegistrationNoTaken):
		response.Conflict(c, 14007, "学号已被使用")
	case errors.Is(err, service.ErrProfileDateInvalid):
		response.BadRequest(c, 14008, "结束日期必须晚于开始日期")
	case errors.Is(err, service.ErrLecturerNotFound):
		response.NotFound(c, 14009, "指导老师不存在")
	case errors.Is(err, service.ErrLecturerAlreadyAssigned):
		response.Conflict(c, 14010, "该学生已由这位老师指导")
	case errors.Is(err, service.ErrLecturerNotAssigned):
		response.BadRequest(c, 14011, "该学生尚未分配指导老师")
	case errors.Is(err, service.ErrAssignmentForbidden):
		response.Forbidden(c, 14012, "无权为该学生分配指导老师")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14013, "学生不存在")
	default:
		response.InternalError(c)
	}
}
