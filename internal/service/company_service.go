package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
)

// ── 实习单位模块业务错误 ──

var (
	ErrCompanyNotFound  = errors.New("实习单位不存在")
	ErrCompanyExists    = errors.New("同名实习单位已存在")
	ErrCompanyForbidden = errors.New("只有学生或企业导师可以登记实习单位")
)

// CompanyService 实习单位业务接口
type CompanyService interface {
	List(ctx context.Context) ([]dto.CompanyResponse, error)
	Get(ctx context.Context, id string) (*dto.CompanyResponse, error)
	Create(ctx context.Context, p *Principal, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error)
}

type companyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCompanyService 创建 CompanyService 实例
func NewCompanyService(repo *repository.Repository, logger *zap.Logger) CompanyService {
	return &companyService{repo: repo, logger: logger}
}

func (s *companyService) List(ctx context.Context) ([]dto.CompanyResponse, error) {
	companies, err := s.repo.Company.List(ctx)
	if err != nil {
		s.logger.Error("列出实习单位失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		result = append(result, *toCompanyResponse(&companies[i]))
	}
	return result, nil
}

func (s *companyService) Get(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := s.repo.Company.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		s.logger.Error("查询实习单位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCompanyResponse(company), nil
}

func (s *companyService) Create(ctx context.Context, p *Principal, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if !p.IsStudent() && !p.IsSupervisor() {
		return nil, ErrCompanyForbidden
	}

	company := &model.Company{
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Email:       strings.TrimSpace(req.Email),
	}
	company.CreatedBy = &p.UserID
	company.UpdatedBy = &p.UserID

	if err := s.repo.Company.Create(ctx, company); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCompanyExists
		}
		s.logger.Error("创建实习单位失败", zap.String("name", company.Name), zap.Error(err))
		return nil, err
	}

	return toCompanyResponse(company), nil
}
