package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
)

// ── 身份解析业务错误 ──

var (
	ErrPrincipalNotFound = errors.New("用户不存在或已被删除")
	ErrPrincipalStale    = errors.New("账号角色已变更，请重新登录")
	ErrAccountDisabled   = errors.New("账号已停用")
)

// Principal 当前请求的调用者
// 档案不存在时对应字段为空串；CompanyID 对学生是所在单位，对企业导师是所属单位
type Principal struct {
	UserID              string
	Role                string
	StudentID           string
	CompanyID           string
	LecturerProfileID   string
	SupervisorProfileID string
}

func (p *Principal) IsStudent() bool    { return p.Role == model.RoleStudent }
func (p *Principal) IsLecturer() bool   { return p.Role == model.RoleLecturer }
func (p *Principal) IsSupervisor() bool { return p.Role == model.RoleSupervisor }
func (p *Principal) IsAdmin() bool      { return p.Role == model.RoleAdmin }

// HasProfile 当前角色的档案是否已建立；管理员无档案
func (p *Principal) HasProfile() bool {
	switch p.Role {
	case model.RoleStudent:
		return p.StudentID != ""
	case model.RoleLecturer:
		return p.LecturerProfileID != ""
	case model.RoleSupervisor:
		return p.SupervisorProfileID != ""
	}
	return true
}

// IdentityService 把 Token 中的用户解析为 Principal
type IdentityService interface {
	Resolve(ctx context.Context, userID, role string) (*Principal, error)
}

type identityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewIdentityService 创建 IdentityService 实例
func NewIdentityService(repo *repository.Repository, logger *zap.Logger) IdentityService {
	return &identityService{repo: repo, logger: logger}
}

func (s *identityService) Resolve(ctx context.Context, userID, role string) (*Principal, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if user.Role != role {
		return nil, ErrPrincipalStale
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	p := &Principal{UserID: user.UserID, Role: user.Role}

	switch user.Role {
	case model.RoleStudent:
		student, err := s.repo.Student.GetByUserID(ctx, userID)
		if err == nil {
			p.StudentID = student.StudentID
			p.CompanyID = student.CompanyID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
	case model.RoleLecturer:
		lecturer, err := s.repo.Lecturer.GetByUserID(ctx, userID)
		if err == nil {
			p.LecturerProfileID = lecturer.LecturerID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询教师档案失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
	case model.RoleSupervisor:
		supervisor, err := s.repo.Supervisor.GetByUserID(ctx, userID)
		if err == nil {
			p.SupervisorProfileID = supervisor.SupervisorID
			p.CompanyID = supervisor.CompanyID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询企业导师档案失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
	}

	return p, nil
}
