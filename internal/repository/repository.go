package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Company      CompanyRepository
	Student      StudentRepository
	Lecturer     LecturerRepository
	Supervisor   SupervisorRepository
	TaskCategory TaskCategoryRepository
	DailyTask    DailyTaskRepository
	AuditLog     AuditLogRepository
	AdminInvite  AdminInviteRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Company:      NewCompanyRepo(db),
		Student:      NewStudentRepo(db),
		Lecturer:     NewLecturerRepo(db),
		Supervisor:   NewSupervisorRepo(db),
		TaskCategory: NewTaskCategoryRepo(db),
		DailyTask:    NewDailyTaskRepo(db),
		AuditLog:     NewAuditLogRepo(db),
		AdminInvite:  NewAdminInviteRepo(db),
	}
}

// BeginTx 开启事务
// 单元测试中聚合由 mock 组装、db 为空，此时返回 nil 事务，调用方按无事务处理
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Ping 数据库健康检查
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
