package model

import (
	"time"

	"github.com/lib/pq"
)

// DailyTask 实习日志表 — 对应 daily_tasks
// (student_id, task_date) 在未删除记录中唯一；week_number/iso_year 由 task_date 派生
type DailyTask struct {
	DailyTaskID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"daily_task_id"`
	StudentID          string         `gorm:"type:uuid;not null"                             json:"student_id"`
	TaskDate           time.Time      `gorm:"type:date;not null"                             json:"task_date"`
	Description        string         `gorm:"type:text;not null"                             json:"description"`
	CategoryID         string         `gorm:"type:uuid;not null"                             json:"category_id"`
	ToolsUsed          pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"tools_used"`
	SkillsApplied      pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"skills_applied"`
	HoursSpent         float64        `gorm:"type:numeric(4,2);not null"                     json:"hours_spent"`
	Approved           bool           `gorm:"not null;default:false"                         json:"approved"`
	SupervisorID       *string        `gorm:"type:uuid"                                      json:"supervisor_id,omitempty"`
	SupervisorComments string         `gorm:"type:text"                                      json:"supervisor_comments,omitempty"`
	ApprovedAt         *time.Time     `json:"approved_at,omitempty"`
	WeekNumber         int            `gorm:"not null"                                       json:"week_number"`
	ISOYear            int            `gorm:"column:iso_year;not null"                       json:"iso_year"`
	VersionedModel

	// 关联
	Student    *Student      `gorm:"foreignKey:StudentID;references:StudentID"   json:"student,omitempty"`
	Category   *TaskCategory `gorm:"foreignKey:CategoryID;references:CategoryID" json:"category,omitempty"`
	Supervisor *User         `gorm:"foreignKey:SupervisorID;references:UserID"   json:"supervisor,omitempty"`
}

// TableName 指定表名
func (DailyTask) TableName() string { return "daily_tasks" }
