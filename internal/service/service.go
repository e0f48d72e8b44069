package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"industrolink/backend/config"
	"industrolink/backend/internal/repository"
	"industrolink/backend/pkg/jwt"
	"industrolink/backend/pkg/mailer"
	"industrolink/backend/pkg/metrics"
	"industrolink/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	Identity IdentityService
	Task     DailyTaskService
	Approval ApprovalService
	Report   ReportService
	Category CategoryService
	Company  CompanyService
	Profile  ProfileService
	Admin    AdminService
	Audit    AuditService
}

// TokenBlacklist 登出 Token 黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// NewService 创建 Service 聚合
// rdb 为 nil 时登出/刷新不使用黑名单
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	mail mailer.Sender,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	var blacklist TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	audit := NewAuditService(repo, logger)

	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, blacklist, mail, audit, logger),
		Identity: NewIdentityService(repo, logger),
		Task:     NewDailyTaskService(cfg, repo, audit, m, logger),
		Approval: NewApprovalService(repo, audit, m, logger),
		Report:   NewReportService(cfg, repo, logger),
		Category: NewCategoryService(repo, logger),
		Company:  NewCompanyService(repo, logger),
		Profile:  NewProfileService(repo, audit, logger),
		Admin:    NewAdminService(cfg, repo, mail, audit, logger),
		Audit:    audit,
	}
}

// runInTx 在事务中执行 fn；fn 返回错误时回滚
// 单元测试中 BeginTx 返回 nil 事务，fn 直接使用原 Repository
func runInTx(ctx context.Context, repo *repository.Repository, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}

// clock 当前时间来源，测试中替换
type clock func() time.Time

func systemClock() time.Time { return time.Now() }
