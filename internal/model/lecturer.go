package model

// Lecturer 指导老师档案表 — 对应 lecturers
type Lecturer struct {
	LecturerID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecturer_id"`
	UserID     string `gorm:"type:uuid;not null"                             json:"user_id"`
	Department string `gorm:"type:varchar(100);not null"                     json:"department"`
	Title      string `gorm:"type:varchar(20);not null"                      json:"title"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Lecturer) TableName() string { return "lecturers" }
