package dto

// ── 实习日志 DTO ──

// CreateTaskRequest 创建当日日志
// 日期由服务端决定；分类可给 ID，也可给名称（不存在时自动创建）
type CreateTaskRequest struct {
	Description      string   `json:"description"        binding:"required,notblank"`
	TaskCategory     string   `json:"task_category"      binding:"omitempty,uuid"`
	TaskCategoryName string   `json:"task_category_name" binding:"omitempty,max=100"`
	HoursSpent       float64  `json:"hours_spent"`
	ToolsUsed        []string `json:"tools_used"`
	SkillsApplied    []string `json:"skills_applied"`
}

// UpdateTaskRequest 部分更新
// 学生只能修改内容字段；企业导师/管理员只能修改审批字段
type UpdateTaskRequest struct {
	Description        *string   `json:"description"         binding:"omitempty,notblank"`
	TaskCategory       *string   `json:"task_category"       binding:"omitempty,uuid"`
	TaskCategoryName   *string   `json:"task_category_name"  binding:"omitempty,max=100"`
	HoursSpent         *float64  `json:"hours_spent"`
	ToolsUsed          *[]string `json:"tools_used"`
	SkillsApplied      *[]string `json:"skills_applied"`
	Approved           *bool     `json:"approved"`
	SupervisorComments *string   `json:"supervisor_comments"`
}

// HasContentFields 是否包含内容字段
func (r *UpdateTaskRequest) HasContentFields() bool {
	return r.Description != nil || r.TaskCategory != nil || r.TaskCategoryName != nil ||
		r.HoursSpent != nil || r.ToolsUsed != nil || r.SkillsApplied != nil
}

// HasApprovalFields 是否包含审批字段
func (r *UpdateTaskRequest) HasApprovalFields() bool {
	return r.Approved != nil || r.SupervisorComments != nil
}

// TaskListQuery 日志列表查询参数
type TaskListQuery struct {
	DateFrom     string `form:"date_from"     binding:"omitempty,datetime=2006-01-02"`
	DateTo       string `form:"date_to"       binding:"omitempty,datetime=2006-01-02"`
	Week         int    `form:"week"          binding:"omitempty,min=1,max=53"`
	Year         int    `form:"year"          binding:"omitempty,min=2000,max=2100"`
	Student      string `form:"student"       binding:"omitempty,uuid"`
	Approved     *bool  `form:"approved"`
	TaskCategory string `form:"task_category" binding:"omitempty,uuid"`
	Limit        int    `form:"limit"         binding:"omitempty,min=1,max=500"`
	Offset       int    `form:"offset"        binding:"omitempty,min=0"`
}

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatICS  = "ics"
)

// ExportQuery 导出参数：筛选与列表一致，format 缺省为 xlsx
type ExportQuery struct {
	TaskListQuery
	Format string `form:"format" binding:"omitempty,oneof=xlsx ics"`
}

// TaskResponse 日志详情
type TaskResponse struct {
	ID                    string   `json:"id"`
	StudentID             string   `json:"student"`
	StudentName           string   `json:"student_name,omitempty"`
	StudentRegistrationNo string   `json:"student_registration_no,omitempty"`
	CompanyName           string   `json:"company_name,omitempty"`
	Date                  string   `json:"date"`
	Description           string   `json:"description"`
	TaskCategory          string   `json:"task_category"`
	TaskCategoryName      string   `json:"task_category_name,omitempty"`
	ToolsUsed             []string `json:"tools_used"`
	SkillsApplied         []string `json:"skills_applied"`
	HoursSpent            float64  `json:"hours_spent"`
	Approved              bool     `json:"approved"`
	SupervisorID          *string  `json:"supervisor,omitempty"`
	SupervisorName        string   `json:"supervisor_name,omitempty"`
	SupervisorComments    string   `json:"supervisor_comments,omitempty"`
	ApprovedAt            *string  `json:"approved_at,omitempty"`
	WeekNumber            int      `json:"week_number"`
	ISOYear               int      `json:"iso_year"`
	Version               int      `json:"version"`
	CreatedAt             string   `json:"created_at"`
	UpdatedAt             string   `json:"updated_at"`
}

// TaskListResponse 日志列表；Count 为分页前的总数
type TaskListResponse struct {
	Count   int64          `json:"count"`
	Results []TaskResponse `json:"results"`
}

// TodayTaskResponse 今日日志；没有时 HasTask=false 而不是 404
type TodayTaskResponse struct {
	Date    string        `json:"date"`
	HasTask bool          `json:"has_task"`
	Task    *TaskResponse `json:"task,omitempty"`
}

// TaskConflictResponse 当日日志已存在时返回已有记录
type TaskConflictResponse struct {
	ExistingTaskID string `json:"existing_task_id"`
	Date           string `json:"date"`
}

// ── 审批 ──

// ApproveTaskRequest 单条审批
type ApproveTaskRequest struct {
	Comments string `json:"comments" binding:"omitempty,max=2000"`
}

// BulkApproveRequest 批量审批
type BulkApproveRequest struct {
	TaskIDs  []string `json:"task_ids" binding:"required,min=1,max=200,dive,uuid"`
	Comments string   `json:"comments" binding:"omitempty,max=2000"`
}

// BulkApproveResponse 批量审批结果
type BulkApproveResponse struct {
	Requested     int   `json:"requested"`
	ApprovedCount int64 `json:"approved_count"`
}

// ToggleApprovalRequest 直接设置审批状态
type ToggleApprovalRequest struct {
	Approved *bool   `json:"approved" binding:"required"`
	Comments *string `json:"comments" binding:"omitempty,max=2000"`
}

// ── 分类 ──

// CreateCategoryRequest 创建分类
type CreateCategoryRequest struct {
	Name        string `json:"name"        binding:"required,notblank,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// CategoryResponse 分类信息
type CategoryResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	IsActive      bool   `json:"is_active"`
	IsUserCreated bool   `json:"is_user_created"`
}

// ── 统计 ──

// CurrentWeekStats 当前 ISO 周统计
type CurrentWeekStats struct {
	WeekNumber int     `json:"week_number"`
	Year       int     `json:"year"`
	TaskCount  int     `json:"task_count"`
	Hours      float64 `json:"hours"`
}

// RecentActivity 近期活动
type RecentActivity struct {
	TasksLast7Days int `json:"tasks_last_7_days"`
}

// CategoryBreakdown 分类统计
type CategoryBreakdown struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Hours    float64 `json:"hours"`
}

// StatisticsResponse 学生日志统计
type StatisticsResponse struct {
	TotalTasks          int                 `json:"total_tasks"`
	ApprovedTasks       int                 `json:"approved_tasks"`
	PendingApproval     int                 `json:"pending_approval"`
	TotalHours          float64             `json:"total_hours"`
	ApprovalRate        float64             `json:"approval_rate"`
	CurrentWeek         CurrentWeekStats    `json:"current_week"`
	RecentActivity      RecentActivity      `json:"recent_activity"`
	CategoryBreakdown   []CategoryBreakdown `json:"category_breakdown"`
	AverageHoursPerTask float64             `json:"average_hours_per_task"`
}

// WeeklySummaryQuery 周汇总查询参数；缺省为当前 ISO 周
type WeeklySummaryQuery struct {
	Week int `form:"week" binding:"omitempty,min=1,max=53"`
	Year int `form:"year" binding:"omitempty,min=2000,max=2100"`
}

// DaySummary 单日情况
type DaySummary struct {
	Date    string        `json:"date"`
	HasTask bool          `json:"has_task"`
	Task    *TaskResponse `json:"task,omitempty"`
}

// WeeklySummaryResponse 周汇总
type WeeklySummaryResponse struct {
	StudentID      string                `json:"student"`
	WeekNumber     int                   `json:"week_number"`
	ISOYear        int                   `json:"iso_year"`
	WeekStart      string                `json:"week_start"`
	WeekEnd        string                `json:"week_end"`
	TotalTasks     int                   `json:"total_tasks"`
	ApprovedTasks  int                   `json:"approved_tasks"`
	TotalHours     float64               `json:"total_hours"`
	CompletionRate float64               `json:"completion_rate"`
	Categories     map[string]int        `json:"categories"`
	DailyBreakdown map[string]DaySummary `json:"daily_breakdown"`
}
