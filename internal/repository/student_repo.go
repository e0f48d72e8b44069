package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"industrolink/backend/internal/model"
	pkgerrors "industrolink/backend/pkg/errors"
)

// StudentRepository 学生档案数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID string) (*model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	ListByCompany(ctx context.Context, companyID string) ([]model.Student, error)
	ListByLecturer(ctx context.Context, lecturerUserID string) ([]model.Student, error)
	SetLecturer(ctx context.Context, studentID string, lecturerID *string, assignedBy string, at time.Time, notes string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Company").
		Preload("Lecturer")
}

// Create 学号或用户重复时返回 ErrDuplicate
func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	err := r.db.WithContext(ctx).Omit("User", "Company", "Lecturer").Create(student).Error
	if pkgerrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.preloaded(ctx).
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID string) (*model.Student, error) {
	var student model.Student
	err := r.preloaded(ctx).
		Where("user_id = ?", userID).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	err := r.db.WithContext(ctx).
		Omit("User", "Company", "Lecturer").
		Save(student).Error
	if pkgerrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *studentRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Student, error) {
	var students []model.Student
	err := r.preloaded(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ListByLecturer(ctx context.Context, lecturerUserID string) ([]model.Student, error) {
	var students []model.Student
	err := r.preloaded(ctx).
		Where("lecturer_id = ?", lecturerUserID).
		Order("created_at DESC").
		Find(&students).Error
	return students, err
}

// SetLecturer 设置或清除学生的指导老师；lecturerID 为 nil 表示解除
func (r *studentRepo) SetLecturer(ctx context.Context, studentID string, lecturerID *string, assignedBy string, at time.Time, notes string) error {
	updates := map[string]interface{}{
		"lecturer_id":          lecturerID,
		"lecturer_assigned_by": assignedBy,
		"lecturer_assigned_at": at,
		"lecturer_notes":       notes,
		"updated_by":           assignedBy,
	}
	if lecturerID == nil {
		updates["lecturer_assigned_by"] = nil
		updates["lecturer_assigned_at"] = nil
		updates["lecturer_notes"] = ""
	}
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", studentID).
		Updates(updates).Error
}
