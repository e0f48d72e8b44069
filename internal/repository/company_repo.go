package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"industrolink/backend/internal/model"
	pkgerrors "industrolink/backend/pkg/errors"
)

// CompanyRepository 实习单位数据访问接口
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	GetByName(ctx context.Context, name string) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
}

type companyRepo struct {
	db *gorm.DB
}

// NewCompanyRepo 创建 CompanyRepository 实例
func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db: db}
}

// Create 名称冲突时返回 ErrDuplicate
func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	err := r.db.WithContext(ctx).Create(company).Error
	if pkgerrors.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).
		Where("company_id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) GetByName(ctx context.Context, name string) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).
		Where("lower(name) = ?", strings.ToLower(name)).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) List(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&companies).Error
	return companies, err
}
