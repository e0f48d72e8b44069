package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"industrolink/backend/internal/model"
)

// TaskCategoryRepository 任务分类数据访问接口
type TaskCategoryRepository interface {
	GetByID(ctx context.Context, id string) (*model.TaskCategory, error)
	GetByName(ctx context.Context, name string) (*model.TaskCategory, error)
	ListActive(ctx context.Context) ([]model.TaskCategory, error)
	Count(ctx context.Context) (int64, error)
	// FirstOrCreate 按名称（不区分大小写）查找，不存在则创建；created 表示本次是否新建
	FirstOrCreate(ctx context.Context, category *model.TaskCategory) (result *model.TaskCategory, created bool, err error)
}

type taskCategoryRepo struct {
	db *gorm.DB
}

// NewTaskCategoryRepo 创建 TaskCategoryRepository 实例
func NewTaskCategoryRepo(db *gorm.DB) TaskCategoryRepository {
	return &taskCategoryRepo{db: db}
}

func (r *taskCategoryRepo) GetByID(ctx context.Context, id string) (*model.TaskCategory, error) {
	var category model.TaskCategory
	err := r.db.WithContext(ctx).
		Where("category_id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *taskCategoryRepo) GetByName(ctx context.Context, name string) (*model.TaskCategory, error) {
	var category model.TaskCategory
	err := r.db.WithContext(ctx).
		Where("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *taskCategoryRepo) ListActive(ctx context.Context) ([]model.TaskCategory, error) {
	var categories []model.TaskCategory
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *taskCategoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TaskCategory{}).Count(&n).Error
	return n, err
}

// FirstOrCreate 依赖 lower(name) 唯一索引：并发创建同名分类时只有一条插入成功，其余回读
func (r *taskCategoryRepo) FirstOrCreate(ctx context.Context, category *model.TaskCategory) (*model.TaskCategory, bool, error) {
	existing, err := r.GetByName(ctx, category.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(category)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return category, true, nil
	}

	existing, err = r.GetByName(ctx, category.Name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
