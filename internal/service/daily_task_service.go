package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"industrolink/backend/config"
	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	pkgerrors "industrolink/backend/pkg/errors"
	"industrolink/backend/pkg/isoweek"
	"industrolink/backend/pkg/metrics"
)

// ── 实习日志模块业务错误 ──

var (
	ErrTaskNotFound           = errors.New("日志不存在")
	ErrTaskAlreadyExists      = errors.New("今天的日志已经提交过了")
	ErrTaskForbidden          = errors.New("无权操作该日志")
	ErrTaskApprovedLocked     = errors.New("日志已审批，不能再修改或删除")
	ErrTaskApprovalOnly       = errors.New("只能修改审批状态和审批意见")
	ErrStudentProfileRequired = errors.New("请先完善学生档案")
	ErrTaskDescriptionEmpty   = errors.New("工作内容不能为空")
	ErrTaskHoursOutOfRange    = errors.New("工作时长必须大于 0 且不超过 24 小时")
	ErrCategoryRequired       = errors.New("请选择或填写任务分类")
	ErrCategoryNotFound       = errors.New("任务分类不存在")
	ErrTaskDateInvalid        = errors.New("日期格式应为 YYYY-MM-DD")
	ErrTaskWeekYearPair       = errors.New("week 与 year 必须同时提供")
	ErrTaskWeekInvalid        = errors.New("该年份没有这一周")
)

// TaskConflictError 当天已有日志；errors.Is(err, ErrTaskAlreadyExists) 成立
type TaskConflictError struct {
	TaskID string
	Date   time.Time
}

func (e *TaskConflictError) Error() string {
	return fmt.Sprintf("%s（%s）", ErrTaskAlreadyExists.Error(), formatDate(e.Date))
}

func (e *TaskConflictError) Unwrap() error { return ErrTaskAlreadyExists }

const maxHoursPerDay = 24

// DailyTaskService 实习日志业务接口
type DailyTaskService interface {
	Create(ctx context.Context, p *Principal, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	Get(ctx context.Context, p *Principal, id string) (*dto.TaskResponse, error)
	List(ctx context.Context, p *Principal, q *dto.TaskListQuery) (*dto.TaskListResponse, error)
	Today(ctx context.Context, p *Principal) (*dto.TodayTaskResponse, error)
	Update(ctx context.Context, p *Principal, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Delete(ctx context.Context, p *Principal, id string) error
}

type dailyTaskService struct {
	cfg     *config.Config
	repo    *repository.Repository
	audit   AuditService
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     clock
}

// NewDailyTaskService 创建 DailyTaskService 实例
func NewDailyTaskService(
	cfg *config.Config,
	repo *repository.Repository,
	audit AuditService,
	m *metrics.Metrics,
	logger *zap.Logger,
) DailyTaskService {
	return &dailyTaskService{
		cfg:     cfg,
		repo:    repo,
		audit:   audit,
		metrics: m,
		logger:  logger,
		now:     systemClock,
	}
}

// today 按 app.timezone 取当天日期
func (s *dailyTaskService) today() time.Time {
	return isoweek.Date(s.now(), s.cfg.App.Location())
}

// ────────────────────── Create ──────────────────────

func (s *dailyTaskService) Create(ctx context.Context, p *Principal, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if !p.IsStudent() {
		return nil, ErrTaskForbidden
	}
	if p.StudentID == "" {
		return nil, ErrStudentProfileRequired
	}

	today := s.today()

	// 1. 一天一条：先查，唯一索引兜底并发写入
	existing, err := s.repo.DailyTask.GetByStudentAndDate(ctx, p.StudentID, today)
	if err == nil {
		return nil, &TaskConflictError{TaskID: existing.DailyTaskID, Date: existing.TaskDate}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询当天日志失败", zap.String("student_id", p.StudentID), zap.Error(err))
		return nil, err
	}

	// 2. 字段校验
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, ErrTaskDescriptionEmpty
	}
	hours, err := validateHours(req.HoursSpent)
	if err != nil {
		return nil, err
	}

	year, week := isoweek.Of(today)
	task := &model.DailyTask{
		StudentID:     p.StudentID,
		TaskDate:      today,
		Description:   description,
		ToolsUsed:     normalizeList(req.ToolsUsed),
		SkillsApplied: normalizeList(req.SkillsApplied),
		HoursSpent:    hours,
		WeekNumber:    week,
		ISOYear:       year,
	}
	task.CreatedBy = &p.UserID
	task.UpdatedBy = &p.UserID

	// 3. 分类解析与写入在同一事务
	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		category, err := resolveCategory(ctx, txRepo, p.UserID, req.TaskCategory, req.TaskCategoryName)
		if err != nil {
			return err
		}
		task.CategoryID = category.CategoryID
		task.Category = category
		return txRepo.DailyTask.Create(ctx, task)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTaskDate) {
			return nil, s.conflictFor(ctx, p.StudentID, today)
		}
		if isTaskBusinessError(err) {
			return nil, err
		}
		s.logger.Error("创建日志失败", zap.String("student_id", p.StudentID), zap.Error(err))
		return nil, err
	}

	s.metrics.TaskCreated()
	s.audit.Record(ctx, AuditEntry{
		ActorID:     p.UserID,
		Action:      model.AuditTaskCreated,
		TargetID:    task.DailyTaskID,
		Description: fmt.Sprintf("提交 %s 的实习日志", formatDate(today)),
		Metadata:    map[string]interface{}{"hours_spent": task.HoursSpent, "category": task.Category.Name},
	})

	return toTaskResponse(task), nil
}

// conflictFor 并发创建输给另一请求时回读已存在的日志
func (s *dailyTaskService) conflictFor(ctx context.Context, studentID string, date time.Time) error {
	existing, err := s.repo.DailyTask.GetByStudentAndDate(ctx, studentID, date)
	if err != nil {
		s.logger.Error("回读当天日志失败", zap.String("student_id", studentID), zap.Error(err))
		return ErrTaskAlreadyExists
	}
	return &TaskConflictError{TaskID: existing.DailyTaskID, Date: existing.TaskDate}
}

// ────────────────────── Get ──────────────────────

func (s *dailyTaskService) Get(ctx context.Context, p *Principal, id string) (*dto.TaskResponse, error) {
	task, err := loadTask(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	if !canViewTask(p, task) {
		return nil, ErrTaskForbidden
	}
	return toTaskResponse(task), nil
}

// ────────────────────── List ──────────────────────

func (s *dailyTaskService) List(ctx context.Context, p *Principal, q *dto.TaskListQuery) (*dto.TaskListResponse, error) {
	filter, err := buildTaskFilter(q)
	if err != nil {
		return nil, err
	}
	filter = scopeTaskFilter(p, filter)

	tasks, total, err := s.repo.DailyTask.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询日志列表失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	results := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		results = append(results, *toTaskResponse(&tasks[i]))
	}
	return &dto.TaskListResponse{Count: total, Results: results}, nil
}

// buildTaskFilter 把查询参数翻译为过滤条件，尚未按角色收窄
func buildTaskFilter(q *dto.TaskListQuery) (repository.DailyTaskFilter, error) {
	f := repository.DailyTaskFilter{
		StudentID:  q.Student,
		CategoryID: q.TaskCategory,
		Approved:   q.Approved,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}

	if q.DateFrom != "" {
		d, err := time.Parse(dto.DateLayout, q.DateFrom)
		if err != nil {
			return f, ErrTaskDateInvalid
		}
		f.DateFrom = &d
	}
	if q.DateTo != "" {
		d, err := time.Parse(dto.DateLayout, q.DateTo)
		if err != nil {
			return f, ErrTaskDateInvalid
		}
		f.DateTo = &d
	}

	if (q.Week > 0) != (q.Year > 0) {
		return f, ErrTaskWeekYearPair
	}
	if q.Week > 0 {
		if !isoweek.Valid(q.Year, q.Week) {
			return f, ErrTaskWeekInvalid
		}
		f.Week, f.Year = q.Week, q.Year
	}

	return f, nil
}

// ────────────────────── Today ──────────────────────

func (s *dailyTaskService) Today(ctx context.Context, p *Principal) (*dto.TodayTaskResponse, error) {
	if !p.IsStudent() {
		return nil, ErrTaskForbidden
	}

	today := s.today()
	resp := &dto.TodayTaskResponse{Date: formatDate(today)}
	if p.StudentID == "" {
		return resp, nil
	}

	task, err := s.repo.DailyTask.GetByStudentAndDate(ctx, p.StudentID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		s.logger.Error("查询今日日志失败", zap.String("student_id", p.StudentID), zap.Error(err))
		return nil, err
	}

	resp.HasTask = true
	resp.Task = toTaskResponse(task)
	return resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *dailyTaskService) Update(ctx context.Context, p *Principal, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	if p.IsLecturer() {
		return nil, ErrTaskForbidden
	}

	task, err := loadTask(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}

	var transition *bool
	switch p.Role {
	case model.RoleStudent:
		if err := checkStudentOwnsEditable(p, task); err != nil {
			return nil, err
		}
		if !req.HasContentFields() {
			return toTaskResponse(task), nil
		}
		if err := s.applyContent(ctx, p, task, req); err != nil {
			return nil, err
		}
	case model.RoleSupervisor, model.RoleAdmin:
		if !canApproveTask(p, task) {
			return nil, ErrTaskForbidden
		}
		if !req.HasApprovalFields() {
			return nil, ErrTaskApprovalOnly
		}
		if applyApproval(task, req.Approved, req.SupervisorComments, p.UserID, s.now()) {
			transition = &task.Approved
		}
	default:
		return nil, ErrTaskForbidden
	}

	task.UpdatedBy = &p.UserID
	if err := s.repo.DailyTask.Update(ctx, task); err != nil {
		return nil, mapTaskWriteError(s.logger, id, err)
	}

	if transition != nil {
		s.metrics.ApprovalTransitions(*transition, 1)
	}
	s.audit.Record(ctx, AuditEntry{
		ActorID:     p.UserID,
		Action:      updateAuditAction(transition),
		TargetID:    task.DailyTaskID,
		Description: fmt.Sprintf("修改 %s 的实习日志", formatDate(task.TaskDate)),
		Metadata:    map[string]interface{}{"version": task.Version},
	})

	return toTaskResponse(task), nil
}

func updateAuditAction(transition *bool) string {
	switch {
	case transition == nil:
		return model.AuditTaskUpdated
	case *transition:
		return model.AuditTaskApproved
	default:
		return model.AuditTaskUnapproved
	}
}

// applyContent 学生修改内容字段；审批字段忽略
func (s *dailyTaskService) applyContent(ctx context.Context, p *Principal, task *model.DailyTask, req *dto.UpdateTaskRequest) error {
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return ErrTaskDescriptionEmpty
		}
		task.Description = description
	}
	if req.HoursSpent != nil {
		hours, err := validateHours(*req.HoursSpent)
		if err != nil {
			return err
		}
		task.HoursSpent = hours
	}
	if req.ToolsUsed != nil {
		task.ToolsUsed = normalizeList(*req.ToolsUsed)
	}
	if req.SkillsApplied != nil {
		task.SkillsApplied = normalizeList(*req.SkillsApplied)
	}

	var categoryID, categoryName string
	if req.TaskCategory != nil {
		categoryID = *req.TaskCategory
	}
	if req.TaskCategoryName != nil {
		categoryName = *req.TaskCategoryName
	}
	if categoryID == "" && strings.TrimSpace(categoryName) == "" {
		return nil
	}

	category, err := resolveCategory(ctx, s.repo, p.UserID, categoryID, categoryName)
	if err != nil {
		if !isTaskBusinessError(err) {
			s.logger.Error("解析任务分类失败", zap.String("task_id", task.DailyTaskID), zap.Error(err))
		}
		return err
	}
	task.CategoryID = category.CategoryID
	task.Category = category
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *dailyTaskService) Delete(ctx context.Context, p *Principal, id string) error {
	if p.IsLecturer() {
		return ErrTaskForbidden
	}

	task, err := loadTask(ctx, s.repo, s.logger, id)
	if err != nil {
		return err
	}

	switch p.Role {
	case model.RoleStudent:
		if err := checkStudentOwnsEditable(p, task); err != nil {
			return err
		}
	case model.RoleSupervisor, model.RoleAdmin:
		if !canApproveTask(p, task) {
			return ErrTaskForbidden
		}
	default:
		return ErrTaskForbidden
	}

	if err := s.repo.DailyTask.Delete(ctx, id, p.UserID); err != nil {
		s.logger.Error("删除日志失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.metrics.TaskDeleted()
	s.audit.Record(ctx, AuditEntry{
		ActorID:     p.UserID,
		Action:      model.AuditTaskDeleted,
		TargetID:    id,
		Description: fmt.Sprintf("删除 %s 的实习日志", formatDate(task.TaskDate)),
		Metadata:    map[string]interface{}{"student_id": task.StudentID},
	})
	return nil
}

// ────────────────────── 共用 ──────────────────────

func loadTask(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id string) (*model.DailyTask, error) {
	task, err := repo.DailyTask.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		logger.Error("查询日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return task, nil
}

// checkStudentOwnsEditable 学生只能修改本人未审批的日志
func checkStudentOwnsEditable(p *Principal, task *model.DailyTask) error {
	if p.StudentID == "" || task.StudentID != p.StudentID {
		return ErrTaskForbidden
	}
	if task.Approved {
		return ErrTaskApprovedLocked
	}
	return nil
}

func mapTaskWriteError(logger *zap.Logger, id string, err error) error {
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		return err
	}
	logger.Error("更新日志失败", zap.String("id", id), zap.Error(err))
	return err
}

// validateHours 按 hours_spent NUMERIC(4,2) 的精度取两位小数后校验 (0, 24]
func validateHours(h float64) (float64, error) {
	h = math.Round(h*100) / 100
	if !(h > 0 && h <= maxHoursPerDay) {
		return 0, ErrTaskHoursOutOfRange
	}
	return h, nil
}

// normalizeList 去除首尾空白、丢弃空项并去重，保留首次出现的顺序
func normalizeList(items []string) []string {
	result := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

// resolveCategory 按 ID、名称、默认分类的顺序确定日志分类
// 名称不区分大小写，不存在时以调用者名义新建
func resolveCategory(ctx context.Context, repo *repository.Repository, actorID, categoryID, categoryName string) (*model.TaskCategory, error) {
	if categoryID != "" {
		category, err := repo.TaskCategory.GetByID(ctx, categoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		if !category.IsActive {
			return nil, ErrCategoryNotFound
		}
		return category, nil
	}

	if name := strings.TrimSpace(categoryName); name != "" {
		category := &model.TaskCategory{Name: name, IsActive: true, IsUserCreated: true}
		category.CreatedBy = &actorID
		result, _, err := repo.TaskCategory.FirstOrCreate(ctx, category)
		if err != nil {
			return nil, err
		}
		// 同名分类已停用：与按 ID 选择停用分类一致处理
		if !result.IsActive {
			return nil, ErrCategoryNotFound
		}
		return result, nil
	}

	n, err := repo.TaskCategory.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrCategoryRequired
	}
	result, _, err := repo.TaskCategory.FirstOrCreate(ctx, &model.TaskCategory{
		Name:     model.DefaultCategoryName,
		IsActive: true,
	})
	return result, err
}

func isTaskBusinessError(err error) bool {
	return errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrCategoryRequired)
}
