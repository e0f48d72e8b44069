package model

// Supervisor 企业导师档案表 — 对应 supervisors
type Supervisor struct {
	SupervisorID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"supervisor_id"`
	UserID       string `gorm:"type:uuid;not null"                             json:"user_id"`
	CompanyID    string `gorm:"type:uuid;not null"                             json:"company_id"`
	Position     string `gorm:"type:varchar(100)"                              json:"position,omitempty"`
	PhoneNumber  string `gorm:"type:varchar(30)"                               json:"phone_number,omitempty"`
	BaseModel

	User    *User    `gorm:"foreignKey:UserID;references:UserID"       json:"user,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID;references:CompanyID" json:"company,omitempty"`
}

// TableName 指定表名
func (Supervisor) TableName() string { return "supervisors" }
