package service

import (
	"context"

	"go.uber.org/zap"

	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
)

// AuditEntry 一条审计记录
type AuditEntry struct {
	ActorID      string
	Action       string
	TargetUserID string
	TargetID     string
	Description  string
	Metadata     map[string]interface{}
}

// AuditService 操作审计
// Record 在业务操作提交后调用，写入失败只记日志，不影响已完成的操作
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	log := &model.AuditLog{
		ActorID:     entry.ActorID,
		ActionType:  entry.Action,
		Description: entry.Description,
		Metadata:    entry.Metadata,
	}
	if log.Metadata == nil {
		log.Metadata = map[string]interface{}{}
	}
	if entry.TargetUserID != "" {
		log.TargetUserID = &entry.TargetUserID
	}
	if entry.TargetID != "" {
		log.TargetID = &entry.TargetID
	}

	if err := s.repo.AuditLog.Create(context.WithoutCancel(ctx), log); err != nil {
		s.logger.Warn("写入审计日志失败",
			zap.String("action", entry.Action),
			zap.String("actor_id", entry.ActorID),
			zap.Error(err),
		)
	}
}
