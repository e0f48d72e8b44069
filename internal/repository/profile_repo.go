package repository

import (
	"context"

	"gorm.io/gorm"

	"industrolink/backend/internal/model"
	pkgerrors "industrolink/backend/pkg/errors"
)

// LecturerRepository 指导老师档案数据访问接口
type LecturerRepository interface {
	Create(ctx context.Context, lecturer *model.Lecturer) error
	GetByUserID(ctx context.Context, userID string) (*model.Lecturer, error)
	Update(ctx context.Context, lecturer *model.Lecturer) error
}

// SupervisorRepository 企业导师档案数据访问接口
type SupervisorRepository interface {
	Create(ctx context.Context, supervisor *model.Supervisor) error
	GetByUserID(ctx context.Context, userID string) (*model.Supervisor, error)
	Update(ctx context.Context, supervisor *model.Supervisor) error
}

// ── Lecturer Repository 实现 ──

type lecturerRepo struct {
	db *gorm.DB
}

// NewLecturerRepo 创建 LecturerRepository 实例
func NewLecturerRepo(db *gorm.DB) LecturerRepository {
	return &lecturerRepo{db: db}
}

func (r *lecturerRepo) Create(ctx context.Context, lecturer *model.Lecturer) error {
	err := r.db.WithContext(ctx).Omit("User").Create(lecturer).Error
	if pkgerrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *lecturerRepo) GetByUserID(ctx context.Context, userID string) (*model.Lecturer, error) {
	var lecturer model.Lecturer
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&lecturer).Error
	if err != nil {
		return nil, err
	}
	return &lecturer, nil
}

func (r *lecturerRepo) Update(ctx context.Context, lecturer *model.Lecturer) error {
	return r.db.WithContext(ctx).Omit("User").Save(lecturer).Error
}

// ── Supervisor Repository 实现 ──

type supervisorRepo struct {
	db *gorm.DB
}

// NewSupervisorRepo 创建 SupervisorRepository 实例
func NewSupervisorRepo(db *gorm.DB) SupervisorRepository {
	return &supervisorRepo{db: db}
}

func (r *supervisorRepo) Create(ctx context.Context, supervisor *model.Supervisor) error {
	err := r.db.WithContext(ctx).Omit("User", "Company").Create(supervisor).Error
	if pkgerrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *supervisorRepo) GetByUserID(ctx context.Context, userID string) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Company").
		Where("user_id = ?", userID).
		First(&supervisor).Error
	if err != nil {
		return nil, err
	}
	return &supervisor, nil
}

func (r *supervisorRepo) Update(ctx context.Context, supervisor *model.Supervisor) error {
	return r.db.WithContext(ctx).Omit("User", "Company").Save(supervisor).Error
}
