package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计动作类型
const (
	AuditTaskCreated        = "task_created"
	AuditTaskUpdated        = "task_updated"
	AuditTaskDeleted        = "task_deleted"
	AuditTaskApproved       = "task_approved"
	AuditTaskUnapproved     = "task_unapproved"
	AuditTaskBulkApproved   = "task_bulk_approved"
	AuditStudentAssignment  = "student_assignment"
	AuditUserApproval       = "user_approval"
	AuditUserDeletion       = "user_deletion"
	AuditAccountActivation  = "account_activation"
	AuditAccountDeactivated = "account_deactivation"
	AuditAdminInviteSent    = "admin_invite_sent"
	AuditInviteDeletion     = "invite_deletion"
	AuditAdminRegistered    = "admin_registered"
)

// AuditLog 操作审计表 — 对应 audit_logs
type AuditLog struct {
	AuditLogID   string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	ActorID      string            `gorm:"type:uuid;not null"                             json:"actor_id"`
	ActionType   string            `gorm:"type:varchar(50);not null"                      json:"action_type"`
	TargetUserID *string           `gorm:"type:uuid"                                      json:"target_user_id,omitempty"`
	TargetID     *string           `gorm:"type:uuid"                                      json:"target_id,omitempty"`
	Description  string            `gorm:"type:text;not null"                             json:"description"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID;references:UserID" json:"actor,omitempty"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }
