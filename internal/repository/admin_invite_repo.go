package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"industrolink/backend/internal/model"
)

// AdminInviteRepository 管理员邀请数据访问接口
type AdminInviteRepository interface {
	Create(ctx context.Context, invite *model.AdminInvite) error
	GetByID(ctx context.Context, id string) (*model.AdminInvite, error)
	GetByTokenForUpdate(ctx context.Context, token string) (*model.AdminInvite, error)
	List(ctx context.Context) ([]model.AdminInvite, error)
	MarkUsed(ctx context.Context, id, userID string, at time.Time) error
	Delete(ctx context.Context, id, deletedBy string) error
}

type adminInviteRepo struct {
	db *gorm.DB
}

// NewAdminInviteRepo 创建 AdminInviteRepository 实例
func NewAdminInviteRepo(db *gorm.DB) AdminInviteRepository {
	return &adminInviteRepo{db: db}
}

func (r *adminInviteRepo) Create(ctx context.Context, invite *model.AdminInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *adminInviteRepo) GetByID(ctx context.Context, id string) (*model.AdminInvite, error) {
	var invite model.AdminInvite
	err := r.db.WithContext(ctx).
		Where("invite_id = ?", id).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// GetByTokenForUpdate 行锁读取邀请，防止同一邀请被并发注册两次
// 必须在已有事务的 *gorm.DB 上调用（通过 Repository.WithTx 注入事务连接）
func (r *adminInviteRepo) GetByTokenForUpdate(ctx context.Context, token string) (*model.AdminInvite, error) {
	var invite model.AdminInvite
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *adminInviteRepo) List(ctx context.Context) ([]model.AdminInvite, error) {
	var invites []model.AdminInvite
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

func (r *adminInviteRepo) MarkUsed(ctx context.Context, id, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.AdminInvite{}).
		Where("invite_id = ? AND used_at IS NULL", id).
		Updates(map[string]interface{}{
			"used_at":    at,
			"used_by":    userID,
			"updated_by": userID,
		}).Error
}

func (r *adminInviteRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.AdminInvite{}).
		Where("invite_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": time.Now(),
			"deleted_by": deletedBy,
		}).Error
}
