package model

// DefaultCategoryName 分类表为空时自动创建的默认分类
const DefaultCategoryName = "General Tasks"

// TaskCategory 任务分类表 — 对应 task_categories
// 名称按小写唯一；系统预置分类的 CreatedBy 为空
type TaskCategory struct {
	CategoryID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"category_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description   string `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive      bool   `gorm:"not null;default:true"                          json:"is_active"`
	IsUserCreated bool   `gorm:"not null;default:false"                         json:"is_user_created"`
	BaseModel
}

// TableName 指定表名
func (TaskCategory) TableName() string { return "task_categories" }
