package repository

import (
	"context"
	"errors"
	"langquiz_backend/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) ListPublished(ctx context.Context) ([]model.TestCategory, error) {
	var categories []model.TestCategory
	err := r.DB.WithContext(ctx).
		Select("id", "name", "is_published").
		Where("is_published = ?", true).
		Order("id").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) FindPublished(ctx context.Context, id uint) (*model.TestCategory, error) {
	var category model.TestCategory
	err := r.DB.WithContext(ctx).
		Where("id = ? AND is_published = ?", id, true).
		First(&category).Error
	return &category, err
}

// Upsert 按名称查找分类，不存在则创建，否则更新发布状态
func (r *CategoryRepository) Upsert(ctx context.Context, name string, published bool) (*model.TestCategory, error) {
	var category model.TestCategory
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = model.TestCategory{Name: name, IsPublished: published}
			return tx.Create(&category).Error
		}
		if err != nil {
			return err
		}
		if category.IsPublished == published {
			return nil
		}
		category.IsPublished = published
		return tx.Model(&category).Update("is_published", published).Error
	})
	return &category, err
}
