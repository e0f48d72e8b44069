package handler

import (
	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

// ProfileHandler 档案与指导关系 HTTP 处理器
type ProfileHandler struct {
	profileSvc service.ProfileService
}

// NewProfileHandler 创建 ProfileHandler
func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// ── 学生档案 ──

// CreateStudentProfile POST /api/v1/profiles/student
func (h *ProfileHandler) CreateStudentProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.StudentProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.profileSvc.CreateStudent(c.Request.Context(), p, &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.Created(c, result)
}

// GetStudentProfile GET /api/v1/profiles/student
func (h *ProfileHandler) GetStudentProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.profileSvc.GetStudent(c.Request.Context(), p)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateStudentProfile PUT /api/v1/profiles/student
func (h *ProfileHandler) UpdateStudentProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateStudentProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.profileSvc.UpdateStudent(c.Request.Context(), p, &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// ── 指导老师档案 ──

// CreateLecturerProfile POST /api/v1/profiles/lecturer
func (h *ProfileHandler) CreateLecturerProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.LecturerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.profileSvc.CreateLecturer(c.Request.Context(), p, &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.Created(c, result)
}

// GetLecturerProfile GET /api/v1/profiles/lecturer
func (h *ProfileHandler) GetLecturerProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.profileSvc.GetLecturer(c.Request.Context(), p)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateLecturerProfile PUT /api/v1/profiles/lecturer
func (h *ProfileHandler) UpdateLecturerProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.LecturerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.profileSvc.UpdateLecturer(c.Request.Context(), p, &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// ── 企业导师档案 ──

// CreateSupervisorProfile POST /api/v1/profiles/supervisor
func (h *ProfileHandler) CreateSupervisorProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SupervisorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.profileSvc.CreateSupervisor(c.Request.Context(), p, &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.Created(c, result)
}

// GetSupervisorProfile GET /api/v1/profiles/supervisor
func (h *ProfileHandler) GetSupervisorProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.profileSvc.GetSupervisor(c.Request.Context(), p)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateSupervisorProfile PUT /api/v1/profiles/supervisor
func (h *ProfileHandler) UpdateSupervisorProfile(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SupervisorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.profileSvc.UpdateSupervisor(c.Request.Context(), p, &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// ── 学生名单与指导老师分配 ──

// SupervisedStudents 企业导师所在单位的学生
// GET /api/v1/supervisors/students
func (h *ProfileHandler) SupervisedStudents(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.profileSvc.SupervisedStudents(c.Request.Context(), p)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// AdvisedStudents 指导老师名下的学生
// GET /api/v1/lecturers/students
func (h *ProfileHandler) AdvisedStudents(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.profileSvc.AdvisedStudents(c.Request.Context(), p)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// AssignLecturer 为学生指定指导老师
// PUT /api/v1/students/:id/lecturer
func (h *ProfileHandler) AssignLecturer(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.AssignLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.profileSvc.AssignLecturer(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// UnassignLecturer 取消指导老师
// DELETE /api/v1/students/:id/lecturer
func (h *ProfileHandler) UnassignLecturer(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.profileSvc.UnassignLecturer(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}
