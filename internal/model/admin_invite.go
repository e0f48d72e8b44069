package model

import "time"

// AdminInvite 管理员邀请表 — 对应 admin_invites
type AdminInvite struct {
	InviteID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invite_id"`
	Email     string     `gorm:"type:varchar(255);not null"                     json:"email"`
	Token     string     `gorm:"type:varchar(64);not null"                      json:"-"`
	ExpiresAt time.Time  `gorm:"not null"                                       json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	UsedBy    *string    `gorm:"type:uuid"                                      json:"used_by,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (AdminInvite) TableName() string { return "admin_invites" }

// IsUsable 邀请未使用且未过期
func (i *AdminInvite) IsUsable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}
