package dto

// ── 管理后台 DTO ──

// AdminUserListQuery 用户列表查询
type AdminUserListQuery struct {
	PaginationRequest
	Role   string `form:"role"   binding:"omitempty,oneof=student lecturer supervisor admin"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive pending"`
	Search string `form:"search" binding:"omitempty,max=100"`
}

// 用户操作
const (
	UserActionActivate   = "activate"
	UserActionDeactivate = "deactivate"
	UserActionApprove    = "approve"
	UserActionDelete     = "delete"
)

// UserActionRequest 管理员对用户执行操作
type UserActionRequest struct {
	Action string `json:"action" binding:"required,oneof=activate deactivate approve delete"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// TaskTotals 日志总量
type TaskTotals struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Pending  int64 `json:"pending"`
}

// DashboardResponse 管理后台概览
type DashboardResponse struct {
	TotalUsers       int64              `json:"total_users"`
	UsersByRole      map[string]int64   `json:"users_by_role"`
	PendingApprovals int64              `json:"pending_approvals"`
	Tasks            TaskTotals         `json:"tasks"`
	RecentActions    []AuditLogResponse `json:"recent_actions"`
}

// AuditLogQuery 审计日志查询
type AuditLogQuery struct {
	PaginationRequest
	ActionType string `form:"action_type" binding:"omitempty,max=50"`
}

// AuditLogResponse 审计日志
type AuditLogResponse struct {
	ID           string                 `json:"id"`
	ActorID      string                 `json:"actor_id"`
	ActorName    string                 `json:"actor_name,omitempty"`
	ActionType   string                 `json:"action_type"`
	TargetUserID *string                `json:"target_user_id,omitempty"`
	TargetID     *string                `json:"target_id,omitempty"`
	Description  string                 `json:"description"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

// CreateInviteRequest 邀请管理员
type CreateInviteRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// 邀请状态
const (
	InviteStatusPending = "pending"
	InviteStatusUsed    = "used"
	InviteStatusExpired = "expired"
)

// InviteResponse 邀请信息；Token 仅在创建时返回
type InviteResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Token     string  `json:"token,omitempty"`
	Status    string  `json:"status"`
	ExpiresAt string  `json:"expires_at"`
	UsedAt    *string `json:"used_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}
