package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	"industrolink/backend/pkg/metrics"
)

// ApprovalService 日志审批业务接口
//
// 状态只有两种：待审批（approved=false）与已审批（approved=true，记录审批人和时间）。
// 撤销审批即回到待审批，学生可重新编辑。
type ApprovalService interface {
	Approve(ctx context.Context, p *Principal, id string, req *dto.ApproveTaskRequest) (*dto.TaskResponse, error)
	// BulkApprove 只处理本单位且仍待审批的日志，其余 ID 静默跳过
	BulkApprove(ctx context.Context, p *Principal, req *dto.BulkApproveRequest) (*dto.BulkApproveResponse, error)
	Toggle(ctx context.Context, p *Principal, id string, req *dto.ToggleApprovalRequest) (*dto.TaskResponse, error)
}

type approvalService struct {
	repo    *repository.Repository
	audit   AuditService
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     clock
}

// NewApprovalService 创建 ApprovalService 实例
func NewApprovalService(repo *repository.Repository, audit AuditService, m *metrics.Metrics, logger *zap.Logger) ApprovalService {
	return &approvalService{
		repo:    repo,
		audit:   audit,
		metrics: m,
		logger:  logger,
		now:     systemClock,
	}
}

func canApproveRole(p *Principal) bool {
	return p.IsSupervisor() || p.IsAdmin()
}

// ────────────────────── Approve ──────────────────────

func (s *approvalService) Approve(ctx context.Context, p *Principal, id string, req *dto.ApproveTaskRequest) (*dto.TaskResponse, error) {
	if !canApproveRole(p) {
		return nil, ErrTaskForbidden
	}

	task, err := loadTask(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	if !canApproveTask(p, task) {
		return nil, ErrTaskForbidden
	}

	wasApproved := task.Approved
	now := s.now()
	task.Approved = true
	task.SupervisorID = &p.UserID
	task.SupervisorComments = strings.TrimSpace(req.Comments)
	task.ApprovedAt = &now
	task.UpdatedBy = &p.UserID

	if err := s.repo.DailyTask.Update(ctx, task); err != nil {
		return nil, mapTaskWriteError(s.logger, id, err)
	}

	if !wasApproved {
		s.metrics.ApprovalTransitions(true, 1)
	}
	s.audit.Record(ctx, AuditEntry{
		ActorID:     p.UserID,
		Action:      model.AuditTaskApproved,
		TargetID:    task.DailyTaskID,
		Description: fmt.Sprintf("审批通过 %s 的实习日志", formatDate(task.TaskDate)),
		Metadata:    map[string]interface{}{"student_id": task.StudentID},
	})

	return toTaskResponse(task), nil
}

// ────────────────────── BulkApprove ──────────────────────

func (s *approvalService) BulkApprove(ctx context.Context, p *Principal, req *dto.BulkApproveRequest) (*dto.BulkApproveResponse, error) {
	if !canApproveRole(p) {
		return nil, ErrTaskForbidden
	}

	ids := dedupeIDs(req.TaskIDs)
	resp := &dto.BulkApproveResponse{Requested: len(ids)}

	// 没有档案的企业导师不属于任何单位，不能落到“不限单位”
	companyID := ""
	if p.IsSupervisor() {
		if p.CompanyID == "" {
			return resp, nil
		}
		companyID = p.CompanyID
	}

	comments := strings.TrimSpace(req.Comments)
	now := s.now()

	var approvedIDs []string
	err := runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		locked, err := txRepo.DailyTask.LockPending(ctx, ids, companyID)
		if err != nil {
			return err
		}
		n, err := txRepo.DailyTask.ApproveMany(ctx, locked, p.UserID, comments, now)
		if err != nil {
			return err
		}
		approvedIDs = locked
		resp.ApprovedCount = n
		return nil
	})
	if err != nil {
		s.logger.Error("批量审批失败", zap.String("user_id", p.UserID), zap.Int("requested", len(ids)), zap.Error(err))
		return nil, err
	}

	if resp.ApprovedCount > 0 {
		s.metrics.ApprovalTransitions(true, int(resp.ApprovedCount))
		s.audit.Record(ctx, AuditEntry{
			ActorID:     p.UserID,
			Action:      model.AuditTaskBulkApproved,
			Description: fmt.Sprintf("批量审批通过 %d 条实习日志", resp.ApprovedCount),
			Metadata:    map[string]interface{}{"task_ids": approvedIDs, "requested": len(ids)},
		})
	}

	return resp, nil
}

func dedupeIDs(ids []string) []string {
	result := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// ────────────────────── Toggle ──────────────────────

func (s *approvalService) Toggle(ctx context.Context, p *Principal, id string, req *dto.ToggleApprovalRequest) (*dto.TaskResponse, error) {
	if !canApproveRole(p) {
		return nil, ErrTaskForbidden
	}

	task, err := loadTask(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	if !canApproveTask(p, task) {
		return nil, ErrTaskForbidden
	}

	changed := applyApproval(task, req.Approved, req.Comments, p.UserID, s.now())
	task.UpdatedBy = &p.UserID

	if err := s.repo.DailyTask.Update(ctx, task); err != nil {
		return nil, mapTaskWriteError(s.logger, id, err)
	}

	if changed {
		s.metrics.ApprovalTransitions(task.Approved, 1)
		action, verb := model.AuditTaskUnapproved, "撤销审批"
		if task.Approved {
			action, verb = model.AuditTaskApproved, "审批通过"
		}
		s.audit.Record(ctx, AuditEntry{
			ActorID:     p.UserID,
			Action:      action,
			TargetID:    task.DailyTaskID,
			Description: fmt.Sprintf("%s %s 的实习日志", verb, formatDate(task.TaskDate)),
			Metadata:    map[string]interface{}{"student_id": task.StudentID},
		})
	}

	return toTaskResponse(task), nil
}

// applyApproval 设置审批状态与意见，返回 approved 是否发生变化
// 转为已审批时记录审批人与时间；撤销时一并清除
func applyApproval(task *model.DailyTask, approved *bool, comments *string, approverID string, now time.Time) bool {
	if comments != nil {
		task.SupervisorComments = strings.TrimSpace(*comments)
	}
	if approved == nil || *approved == task.Approved {
		return false
	}

	task.Approved = *approved
	if *approved {
		task.SupervisorID = &approverID
		task.ApprovedAt = &now
	} else {
		task.SupervisorID = nil
		task.ApprovedAt = nil
	}
	return true
}
