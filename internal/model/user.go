package model

import (
	"strings"
	"time"
)

// 角色常量
const (
	RoleStudent    = "student"
	RoleLecturer   = "lecturer"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// IsValidRole 判断角色是否合法
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleLecturer, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// User 用户表 — 对应 users
type User struct {
	UserID                  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email                   string     `gorm:"type:varchar(255);not null"                     json:"email"`
	FirstName               string     `gorm:"type:varchar(50);not null"                      json:"first_name"`
	MiddleName              string     `gorm:"type:varchar(50)"                               json:"middle_name,omitempty"`
	LastName                string     `gorm:"type:varchar(50);not null"                      json:"last_name"`
	PasswordHash            string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role                    string     `gorm:"type:varchar(20);not null"                      json:"role"`
	IsActive                bool       `gorm:"not null;default:true"                          json:"is_active"`
	ProfileCompleted        bool       `gorm:"not null;default:false"                         json:"profile_completed"`
	EmailVerified           bool       `gorm:"not null;default:false"                         json:"email_verified"`
	EmailVerificationToken  *string    `gorm:"type:varchar(100)"                              json:"-"`
	EmailVerificationSentAt *time.Time `json:"-"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 返回姓名，姓名为空时退回邮箱
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
