package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"industrolink/backend/config"
	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	pkgerrors "industrolink/backend/pkg/errors"
	"industrolink/backend/pkg/jwt"
	"industrolink/backend/pkg/mailer"
)

var (
	ErrInvalidCredentials       = errors.New("邮箱或密码错误")
	ErrUserNotFound             = errors.New("用户不存在")
	ErrEmailTaken               = errors.New("该邮箱已注册")
	ErrVerificationTokenInvalid = errors.New("验证链接无效")
	ErrVerificationTokenExpired = errors.New("验证链接已过期，请重新发送")
	ErrEmailAlreadyVerified     = errors.New("邮箱已验证")
	ErrRefreshTokenInvalid      = errors.New("刷新令牌无效或已过期")
	ErrInviteInvalid            = errors.New("邀请无效、已使用或已过期")
	ErrSelfRegisterAdmin        = errors.New("管理员账号只能通过邀请注册")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error
	ResendVerification(ctx context.Context, userID string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	// Logout 将 Access Token 的 JTI 加入黑名单直至过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	RegisterAdmin(ctx context.Context, req *dto.RegisterAdminRequest) (*dto.TokenResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	mail      mailer.Sender
	audit     AuditService
	logger    *zap.Logger
	now       clock
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	mail mailer.Sender,
	audit AuditService,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		mail:      mail,
		audit:     audit,
		logger:    logger,
		now:       systemClock,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	if req.Role == model.RoleAdmin {
		return nil, ErrSelfRegisterAdmin
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	token := uuid.NewString()
	now := s.now()
	user := &model.User{
		Email:                   email,
		FirstName:               strings.TrimSpace(req.FirstName),
		MiddleName:              strings.TrimSpace(req.MiddleName),
		LastName:                strings.TrimSpace(req.LastName),
		PasswordHash:            string(hash),
		Role:                    req.Role,
		IsActive:                true,
		EmailVerificationToken:  &token,
		EmailVerificationSentAt: &now,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("创建用户失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.sendVerification(ctx, user, token)

	return s.issueTokens(user)
}

func (s *authService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.User.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.String("email", email), zap.Error(err))
		return err
	}
	return nil
}

// sendVerification 邮件发送失败不影响注册，用户可重新发送
func (s *authService) sendVerification(ctx context.Context, user *model.User, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.cfg.Mail.FrontendURL, "/"), token)
	msg := mailer.Message{
		ToName:  user.FullName(),
		ToEmail: user.Email,
		Subject: "Verify your Industrolink email",
		Text:    fmt.Sprintf("Hello %s,\n\nPlease verify your email address by opening the link below:\n%s\n\nThe link expires in %s.", user.FirstName, link, s.cfg.Auth.EmailVerificationTTL),
		HTML:    fmt.Sprintf(`<p>Hello %s,</p><p>Please verify your email address: <a href="%s">verify email</a></p><p>The link expires in %s.</p>`, user.FirstName, link, s.cfg.Auth.EmailVerificationTTL),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("发送验证邮件失败", zap.String("user_id", user.UserID), zap.Error(err))
	}
}

// ────────────────────── VerifyEmail ──────────────────────

func (s *authService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error {
	user, err := s.repo.User.GetByVerificationToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVerificationTokenInvalid
		}
		s.logger.Error("查询验证令牌失败", zap.Error(err))
		return err
	}

	if user.EmailVerificationSentAt == nil ||
		s.now().After(user.EmailVerificationSentAt.Add(s.cfg.Auth.EmailVerificationTTL)) {
		return ErrVerificationTokenExpired
	}

	user.EmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationSentAt = nil
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新邮箱验证状态失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	token := uuid.NewString()
	now := s.now()
	user.EmailVerificationToken = &token
	user.EmailVerificationSentAt = &now
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新验证令牌失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.sendVerification(ctx, user, token)
	return nil
}

// ────────────────────── Login / Refresh / Logout ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 账号状态
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查刷新令牌黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrRefreshTokenInvalid
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// 刷新令牌只用一次
	if claims.ExpiresAt != nil {
		s.revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	}

	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil {
		s.logger.Warn("Redis 不可用，登出未写入黑名单", zap.String("jti", jti))
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, expiresAt.Sub(s.now())); err != nil {
		s.logger.Error("写入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, jti string, expiresAt time.Time) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, expiresAt.Sub(s.now())); err != nil {
		s.logger.Warn("写入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
	}
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── RegisterAdmin ──────────────────────

func (s *authService) RegisterAdmin(ctx context.Context, req *dto.RegisterAdminRequest) (*dto.TokenResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	var user *model.User
	var inviteID string

	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		invite, err := txRepo.AdminInvite.GetByTokenForUpdate(ctx, req.Token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteInvalid
			}
			return err
		}
		if !invite.IsUsable(now) {
			return ErrInviteInvalid
		}

		if _, err := txRepo.User.GetByEmail(ctx, invite.Email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = &model.User{
			Email:            strings.ToLower(invite.Email),
			FirstName:        strings.TrimSpace(req.FirstName),
			LastName:         strings.TrimSpace(req.LastName),
			PasswordHash:     string(hash),
			Role:             model.RoleAdmin,
			IsActive:         true,
			ProfileCompleted: true,
			EmailVerified:    true,
		}
		if err := txRepo.User.Create(ctx, user); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}

		inviteID = invite.InviteID
		return txRepo.AdminInvite.MarkUsed(ctx, invite.InviteID, user.UserID, now)
	})
	if err != nil {
		if errors.Is(err, ErrInviteInvalid) || errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error("管理员注册失败", zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      user.UserID,
		Action:       model.AuditAdminRegistered,
		TargetUserID: user.UserID,
		TargetID:     inviteID,
		Description:  fmt.Sprintf("管理员 %s 通过邀请完成注册", user.Email),
	})

	return s.issueTokens(user)
}

// ────────────────────── 共用 ──────────────────────

func (s *authService) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}
