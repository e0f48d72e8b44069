package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"industrolink/backend/internal/model"
	pkgerrors "industrolink/backend/pkg/errors"
)

// ErrDuplicateTaskDate 同一学生同一天已有日志（唯一索引兜底）
var ErrDuplicateTaskDate = errors.New("该学生当天已有日志")

const uniqueStudentDateIndex = "uk_daily_tasks_student_date"

// DailyTaskFilter 日志查询条件
// 由服务层按调用者角色收窄后传入；Empty 为 true 时直接返回空集
type DailyTaskFilter struct {
	StudentID      string
	LecturerUserID string
	CompanyID      string
	CategoryID     string
	DateFrom       *time.Time
	DateTo         *time.Time
	Week           int
	Year           int
	Approved       *bool
	Limit          int
	Offset         int
	Empty          bool
}

// DailyTaskRepository 实习日志数据访问接口
type DailyTaskRepository interface {
	Create(ctx context.Context, task *model.DailyTask) error
	GetByID(ctx context.Context, id string) (*model.DailyTask, error)
	GetByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*model.DailyTask, error)
	List(ctx context.Context, filter DailyTaskFilter) ([]model.DailyTask, int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.DailyTask, error)
	ListByStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.DailyTask, error)
	Update(ctx context.Context, task *model.DailyTask) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// LockPending 锁定 ids 中属于 companyID（为空则不限）且未审批的日志，返回锁定的 ID；须在事务中调用
	LockPending(ctx context.Context, ids []string, companyID string) ([]string, error)
	ApproveMany(ctx context.Context, ids []string, approverID, comments string, at time.Time) (int64, error)
	CountAll(ctx context.Context) (total int64, approved int64, err error)
}

type dailyTaskRepo struct {
	db *gorm.DB
}

// NewDailyTaskRepo 创建 DailyTaskRepository 实例
func NewDailyTaskRepo(db *gorm.DB) DailyTaskRepository {
	return &dailyTaskRepo{db: db}
}

func (r *dailyTaskRepo) preloaded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Student").
		Preload("Student.User").
		Preload("Student.Company").
		Preload("Category").
		Preload("Supervisor")
}

func (r *dailyTaskRepo) Create(ctx context.Context, task *model.DailyTask) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(task).Error
	if pkgerrors.IsUniqueViolation(err, uniqueStudentDateIndex) {
		return ErrDuplicateTaskDate
	}
	return err
}

func (r *dailyTaskRepo) GetByID(ctx context.Context, id string) (*model.DailyTask, error) {
	var task model.DailyTask
	err := r.preloaded(r.db.WithContext(ctx)).
		Where("daily_task_id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *dailyTaskRepo) GetByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*model.DailyTask, error) {
	var task model.DailyTask
	err := r.preloaded(r.db.WithContext(ctx)).
		Where("student_id = ? AND task_date = ?", studentID, date.Format("2006-01-02")).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// applyFilter 把筛选条件翻译为查询谓词
func applyFilter(db *gorm.DB, f DailyTaskFilter) *gorm.DB {
	if f.LecturerUserID != "" || f.CompanyID != "" {
		db = db.Joins("JOIN students ON students.student_id = daily_tasks.student_id")
		if f.LecturerUserID != "" {
			db = db.Where("students.lecturer_id = ?", f.LecturerUserID)
		}
		if f.CompanyID != "" {
			db = db.Where("students.company_id = ?", f.CompanyID)
		}
	}
	if f.StudentID != "" {
		db = db.Where("daily_tasks.student_id = ?", f.StudentID)
	}
	if f.CategoryID != "" {
		db = db.Where("daily_tasks.category_id = ?", f.CategoryID)
	}
	if f.DateFrom != nil {
		db = db.Where("daily_tasks.task_date >= ?", f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		db = db.Where("daily_tasks.task_date <= ?", f.DateTo.Format("2006-01-02"))
	}
	if f.Week > 0 && f.Year > 0 {
		db = db.Where("daily_tasks.week_number = ? AND daily_tasks.iso_year = ?", f.Week, f.Year)
	}
	if f.Approved != nil {
		db = db.Where("daily_tasks.approved = ?", *f.Approved)
	}
	return db
}

func (r *dailyTaskRepo) List(ctx context.Context, filter DailyTaskFilter) ([]model.DailyTask, int64, error) {
	if filter.Empty {
		return []model.DailyTask{}, 0, nil
	}

	var tasks []model.DailyTask
	var total int64

	db := applyFilter(r.db.WithContext(ctx).Model(&model.DailyTask{}), filter)

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.preloaded(db).
		Order("daily_tasks.task_date DESC").
		Order("daily_tasks.created_at DESC")
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *dailyTaskRepo) ListByStudent(ctx context.Context, studentID string) ([]model.DailyTask, error) {
	var tasks []model.DailyTask
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("student_id = ?", studentID).
		Order("task_date DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *dailyTaskRepo) ListByStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.DailyTask, error) {
	var tasks []model.DailyTask
	err := r.preloaded(r.db.WithContext(ctx)).
		Where("student_id = ? AND task_date BETWEEN ? AND ?", studentID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("task_date ASC").
		Find(&tasks).Error
	return tasks, err
}

// Update 乐观锁更新内容与审批字段
func (r *dailyTaskRepo) Update(ctx context.Context, task *model.DailyTask) error {
	oldVersion := task.Version
	result := r.db.WithContext(ctx).
		Model(&model.DailyTask{}).
		Where("daily_task_id = ? AND version = ?", task.DailyTaskID, oldVersion).
		Updates(map[string]interface{}{
			"description":         task.Description,
			"category_id":         task.CategoryID,
			"tools_used":          task.ToolsUsed,
			"skills_applied":      task.SkillsApplied,
			"hours_spent":         task.HoursSpent,
			"approved":            task.Approved,
			"supervisor_id":       task.SupervisorID,
			"supervisor_comments": task.SupervisorComments,
			"approved_at":         task.ApprovedAt,
			"updated_by":          task.UpdatedBy,
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	task.Version = oldVersion + 1
	return nil
}

func (r *dailyTaskRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.DailyTask{}).
		Where("daily_task_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": time.Now(),
			"deleted_by": deletedBy,
		}).Error
}

func (r *dailyTaskRepo) LockPending(ctx context.Context, ids []string, companyID string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.db.WithContext(ctx).
		Model(&model.DailyTask{}).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "daily_tasks"}}).
		Where("daily_tasks.daily_task_id IN ? AND daily_tasks.approved = ?", ids, false)
	if companyID != "" {
		db = db.Joins("JOIN students ON students.student_id = daily_tasks.student_id").
			Where("students.company_id = ?", companyID)
	}

	var locked []string
	if err := db.Pluck("daily_tasks.daily_task_id", &locked).Error; err != nil {
		return nil, err
	}
	return locked, nil
}

func (r *dailyTaskRepo) ApproveMany(ctx context.Context, ids []string, approverID, comments string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.DailyTask{}).
		Where("daily_task_id IN ? AND approved = ?", ids, false).
		Updates(map[string]interface{}{
			"approved":            true,
			"supervisor_id":       approverID,
			"supervisor_comments": comments,
			"approved_at":         at,
			"updated_by":          approverID,
			"version":             gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *dailyTaskRepo) CountAll(ctx context.Context) (int64, int64, error) {
	var row struct {
		Total    int64
		Approved int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.DailyTask{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE approved) AS approved").
		Scan(&row).Error
	return row.Total, row.Approved, err
}
