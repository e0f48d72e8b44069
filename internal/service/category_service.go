package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
)

// CategoryService 任务分类业务接口
type CategoryService interface {
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	// Create 同名（不区分大小写）分类已存在时返回已有分类，created=false
	Create(ctx context.Context, p *Principal, req *dto.CreateCategoryRequest) (resp *dto.CategoryResponse, created bool, err error)
}

type categoryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCategoryService 创建 CategoryService 实例
func NewCategoryService(repo *repository.Repository, logger *zap.Logger) CategoryService {
	return &categoryService{repo: repo, logger: logger}
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.TaskCategory.ListActive(ctx)
	if err != nil {
		s.logger.Error("列出任务分类失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		result = append(result, toCategoryResponse(&categories[i]))
	}
	return result, nil
}

func (s *categoryService) Create(ctx context.Context, p *Principal, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, bool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, ErrCategoryRequired
	}

	category := &model.TaskCategory{
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		IsActive:      true,
		IsUserCreated: true,
	}
	category.CreatedBy = &p.UserID

	result, created, err := s.repo.TaskCategory.FirstOrCreate(ctx, category)
	if err != nil {
		s.logger.Error("创建任务分类失败", zap.String("name", name), zap.Error(err))
		return nil, false, err
	}
	if !result.IsActive {
		return nil, false, ErrCategoryNotFound
	}

	resp := toCategoryResponse(result)
	return &resp, created, nil
}
