package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"industrolink/backend/config"
	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	"industrolink/backend/pkg/mailer"
)

// ── 管理后台业务错误 ──

var (
	ErrSelfAction       = errors.New("不能对自己的账号执行该操作")
	ErrUnknownAction    = errors.New("不支持的操作")
	ErrInviteNotFound   = errors.New("邀请不存在")
	ErrInviteEmailTaken = errors.New("该邮箱已注册，无需邀请")
)

const dashboardRecentActions = 10

// AdminService 管理后台业务接口
type AdminService interface {
	ListUsers(ctx context.Context, q *dto.AdminUserListQuery) ([]dto.UserResponse, int64, error)
	// UserAction 执行 activate / deactivate / approve / delete；delete 成功时返回 nil
	UserAction(ctx context.Context, p *Principal, userID string, req *dto.UserActionRequest) (*dto.UserResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	AuditLogs(ctx context.Context, q *dto.AuditLogQuery) ([]dto.AuditLogResponse, int64, error)
	CreateInvite(ctx context.Context, p *Principal, req *dto.CreateInviteRequest) (*dto.InviteResponse, error)
	ListInvites(ctx context.Context) ([]dto.InviteResponse, error)
	DeleteInvite(ctx context.Context, p *Principal, id string) error
}

type adminService struct {
	cfg    *config.Config
	repo   *repository.Repository
	mail   mailer.Sender
	audit  AuditService
	logger *zap.Logger
	now    clock
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(
	cfg *config.Config,
	repo *repository.Repository,
	mail mailer.Sender,
	audit AuditService,
	logger *zap.Logger,
) AdminService {
	return &adminService{
		cfg:    cfg,
		repo:   repo,
		mail:   mail,
		audit:  audit,
		logger: logger,
		now:    systemClock,
	}
}

// ════════════════════ 用户管理 ════════════════════

func (s *adminService) ListUsers(ctx context.Context, q *dto.AdminUserListQuery) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, repository.UserFilter{
		Role:   q.Role,
		Status: q.Status,
		Search: q.Search,
		Offset: q.GetOffset(),
		Limit:  q.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *adminService) UserAction(ctx context.Context, p *Principal, userID string, req *dto.UserActionRequest) (*dto.UserResponse, error) {
	if userID == p.UserID {
		return nil, ErrSelfAction
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	var action, description string

	switch req.Action {
	case dto.UserActionActivate:
		user.IsActive = true
		action, description = model.AuditAccountActivation, "启用账号 "+user.Email
	case dto.UserActionDeactivate:
		user.IsActive = false
		action, description = model.AuditAccountDeactivated, "停用账号 "+user.Email
	case dto.UserActionApprove:
		user.IsActive = true
		user.ProfileCompleted = true
		action, description = model.AuditUserApproval, "审核通过账号 "+user.Email
	case dto.UserActionDelete:
		action, description = model.AuditUserDeletion, "删除账号 "+user.Email
	default:
		return nil, ErrUnknownAction
	}

	if req.Action == dto.UserActionDelete {
		err = s.repo.User.Delete(ctx, userID, p.UserID)
	} else {
		user.UpdatedBy = &p.UserID
		err = s.repo.User.Update(ctx, user)
	}
	if err != nil {
		s.logger.Error("执行用户操作失败",
			zap.String("user_id", userID),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      p.UserID,
		Action:       action,
		TargetUserID: userID,
		Description:  description,
		Metadata:     map[string]interface{}{"reason": reason, "role": user.Role},
	})

	if req.Action == dto.UserActionDelete {
		return nil, nil
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ════════════════════ 概览与审计 ════════════════════

func (s *adminService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	byRole, err := s.repo.User.CountByRole(ctx)
	if err != nil {
		s.logger.Error("统计用户失败", zap.Error(err))
		return nil, err
	}
	pending, err := s.repo.User.CountPendingApprovals(ctx)
	if err != nil {
		s.logger.Error("统计待审核用户失败", zap.Error(err))
		return nil, err
	}
	total, approved, err := s.repo.DailyTask.CountAll(ctx)
	if err != nil {
		s.logger.Error("统计日志失败", zap.Error(err))
		return nil, err
	}
	recent, err := s.repo.AuditLog.Recent(ctx, dashboardRecentActions)
	if err != nil {
		s.logger.Error("查询近期操作失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.DashboardResponse{
		UsersByRole:      make(map[string]int64, 4),
		PendingApprovals: pending,
		Tasks:            dto.TaskTotals{Total: total, Approved: approved, Pending: total - approved},
		RecentActions:    make([]dto.AuditLogResponse, 0, len(recent)),
	}
	for _, role := range []string{model.RoleStudent, model.RoleLecturer, model.RoleSupervisor, model.RoleAdmin} {
		resp.UsersByRole[role] = byRole[role]
		resp.TotalUsers += byRole[role]
	}
	for i := range recent {
		resp.RecentActions = append(resp.RecentActions, toAuditLogResponse(&recent[i]))
	}
	return resp, nil
}

func (s *adminService) AuditLogs(ctx context.Context, q *dto.AuditLogQuery) ([]dto.AuditLogResponse, int64, error) {
	logs, total, err := s.repo.AuditLog.List(ctx, q.ActionType, q.GetOffset(), q.GetPageSize())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toAuditLogResponse(&logs[i]))
	}
	return result, total, nil
}

// ════════════════════ 管理员邀请 ════════════════════

func (s *adminService) CreateInvite(ctx context.Context, p *Principal, req *dto.CreateInviteRequest) (*dto.InviteResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrInviteEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	now := s.now()
	invite := &model.AdminInvite{
		Email:     email,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.cfg.Auth.AdminInviteTTL),
	}
	invite.CreatedBy = &p.UserID
	invite.CreatedAt = now

	if err := s.repo.AdminInvite.Create(ctx, invite); err != nil {
		s.logger.Error("创建管理员邀请失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	link := fmt.Sprintf("%s/admin/register?token=%s", strings.TrimRight(s.cfg.Mail.FrontendURL, "/"), invite.Token)
	msg := mailer.Message{
		ToEmail: email,
		Subject: "You have been invited to administer Industrolink",
		Text:    fmt.Sprintf("You have been invited to become an Industrolink administrator.\n\nComplete your registration here:\n%s\n\nThe invitation expires at %s.", link, formatTime(invite.ExpiresAt)),
		HTML:    fmt.Sprintf(`<p>You have been invited to become an Industrolink administrator.</p><p><a href="%s">Complete registration</a></p><p>The invitation expires at %s.</p>`, link, formatTime(invite.ExpiresAt)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("发送管理员邀请邮件失败", zap.String("invite_id", invite.InviteID), zap.Error(err))
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:     p.UserID,
		Action:      model.AuditAdminInviteSent,
		TargetID:    invite.InviteID,
		Description: "邀请管理员 " + email,
		Metadata:    map[string]interface{}{"email": email, "expires_at": formatTime(invite.ExpiresAt)},
	})

	resp := toInviteResponse(invite, now)
	resp.Token = invite.Token
	return &resp, nil
}

func (s *adminService) ListInvites(ctx context.Context) ([]dto.InviteResponse, error) {
	invites, err := s.repo.AdminInvite.List(ctx)
	if err != nil {
		s.logger.Error("查询管理员邀请失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		result = append(result, toInviteResponse(&invites[i], now))
	}
	return result, nil
}

func (s *adminService) DeleteInvite(ctx context.Context, p *Principal, id string) error {
	invite, err := s.repo.AdminInvite.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		s.logger.Error("查询管理员邀请失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.AdminInvite.Delete(ctx, id, p.UserID); err != nil {
		s.logger.Error("删除管理员邀请失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:     p.UserID,
		Action:      model.AuditInviteDeletion,
		TargetID:    id,
		Description: "撤销管理员邀请 " + invite.Email,
	})
	return nil
}
