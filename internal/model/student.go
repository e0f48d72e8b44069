package model

import "time"

// Student 学生档案表 — 对应 students
// 与 users 一对一；LecturerID 直接引用指导老师的 user_id
type Student struct {
	StudentID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	UserID             string     `gorm:"type:uuid;not null"                             json:"user_id"`
	RegistrationNo     string     `gorm:"type:varchar(50);not null"                      json:"registration_no"`
	AcademicYear       string     `gorm:"type:varchar(20);not null"                      json:"academic_year"`
	Course             string     `gorm:"type:varchar(100);not null"                     json:"course"`
	YearOfStudy        string     `gorm:"type:varchar(20);not null"                      json:"year_of_study"`
	DurationInWeeks    int        `gorm:"not null"                                       json:"duration_in_weeks"`
	StartDate          time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	CompletionDate     time.Time  `gorm:"type:date;not null"                             json:"completion_date"`
	CompanyID          string     `gorm:"type:uuid;not null"                             json:"company_id"`
	LecturerID         *string    `gorm:"type:uuid"                                      json:"lecturer_id,omitempty"`
	LecturerAssignedBy *string    `gorm:"type:uuid"                                      json:"lecturer_assigned_by,omitempty"`
	LecturerAssignedAt *time.Time `json:"lecturer_assigned_at,omitempty"`
	LecturerNotes      string     `gorm:"type:text"                                      json:"lecturer_notes,omitempty"`
	BaseModel

	// 关联
	User     *User    `gorm:"foreignKey:UserID;references:UserID"       json:"user,omitempty"`
	Company  *Company `gorm:"foreignKey:CompanyID;references:CompanyID" json:"company,omitempty"`
	Lecturer *User    `gorm:"foreignKey:LecturerID;references:UserID"   json:"lecturer,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
