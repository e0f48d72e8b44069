package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	pkgerrors "industrolink/backend/pkg/errors"
	"industrolink/backend/pkg/response"
)

// TaskHandler 实习日志 HTTP 处理器
type TaskHandler struct {
	taskSvc service.DailyTaskService
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(taskSvc service.DailyTaskService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc}
}

// CreateTask 提交当日日志
// POST /api/v1/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	task, err := h.taskSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.Created(c, task)
}

// ListTasks 按可见范围查询日志
// GET /api/v1/tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var q dto.TaskListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.taskSvc.List(c.Request.Context(), p, &q)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, result)
}

// GetToday 今日日志
// GET /api/v1/tasks/today
func (h *TaskHandler) GetToday(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.taskSvc.Today(c.Request.Context(), p)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, result)
}

// GetTask 日志详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	task, err := h.taskSvc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, task)
}

// UpdateTask 部分更新日志
// PATCH /api/v1/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	task, err := h.taskSvc.Update(c.Request.Context(), p, c.Param("id"), &req)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, task)
}

// DeleteTask 删除日志
// DELETE /api/v1/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if err := h.taskSvc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleTaskError 统一处理日志、审批与统计模块的业务错误
func handleTaskError(c *gin.Context, err error) {
	var conflict *service.TaskConflictError
	if errors.As(err, &conflict) {
		response.ConflictWithData(c, 12002, "今天的日志已经提交过了", dto.TaskConflictResponse{
			ExistingTaskID: conflict.TaskID,
			Date:           conflict.Date.Format(dto.DateLayout),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, 12001, "日志不存在")
	case errors.Is(err, service.ErrTaskAlreadyExists):
		response.Conflict(c, 12002, "今天的日志已经提交过了")
	case errors.Is(err, service.ErrTaskForbidden):
		response.Forbidden(c, 12003, "无权操作该日志")
	case errors.Is(err, service.ErrTaskApprovedLocked):
		response.Forbidden(c, 12004, "日志已审批，不能再修改或删除")
	case errors.Is(err, service.ErrTaskApprovalOnly):
		response.Forbidden(c, 12005, "只能修改审批状态和审批意见")
	case errors.Is(err, service.ErrStudentProfileRequired):
		response.Forbidden(c, 12006, "请先完善学生档案")
	case errors.Is(err, service.ErrTaskDescriptionEmpty):
		response.BadRequest(c, 12007, "工作内容不能为空")
	case errors.Is(err, service.ErrTaskHoursOutOfRange):
		response.BadRequest(c, 12008, "工作时长必须大于 0 且不超过 24 小时")
	case errors.Is(err, service.ErrCategoryRequired):
		response.BadRequest(c, 12009, "请选择或填写任务分类")
	case errors.Is(err, service.ErrCategoryNotFound):
		response.NotFound(c, 12010, "任务分类不存在")
	case errors.Is(err, service.ErrTaskDateInvalid):
		response.BadRequest(c, 12011, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrTaskWeekYearPair):
		response.BadRequest(c, 12012, "week 与 year 必须同时提供")
	case errors.Is(err, service.ErrTaskWeekInvalid):
		response.BadRequest(c, 12013, "该年份没有这一周")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12014, "日志已被他人修改，请刷新后重试")
	case errors.Is(err, service.ErrReportForbidden):
		response.Forbidden(c, 12015, "无权查看该学生的日志")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12016, "学生不存在")
	default:
		response.InternalError(c)
	}
}
