package model

// Company 实习单位表 — 对应 companies
type Company struct {
	CompanyID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"company_id"`
	Name        string `gorm:"type:varchar(200);not null"                     json:"name"`
	Address     string `gorm:"type:text"                                      json:"address,omitempty"`
	PhoneNumber string `gorm:"type:varchar(30)"                               json:"phone_number,omitempty"`
	Email       string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Company) TableName() string { return "companies" }
