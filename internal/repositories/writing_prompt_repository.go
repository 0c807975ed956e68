package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"awaken/internal/models"
)

type WritingPromptRepository interface {
	// ListActive returns active prompts ordered by sort order; an empty
	// category selects every category.
	ListActive(ctx context.Context, category string) ([]models.WritingPrompt, error)
	Count(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, prompts []models.WritingPrompt) error
}

type writingPromptRepository struct {
	db *gorm.DB
}

func NewWritingPromptRepository(db *gorm.DB) WritingPromptRepository {
	return &writingPromptRepository{db: db}
}

func (r *writingPromptRepository) ListActive(ctx context.Context, category string) ([]models.WritingPrompt, error) {
	var list []models.WritingPrompt
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Order("category").Order("sort_order").Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing writing prompts: %w", err)
	}
	return list, nil
}

func (r *writingPromptRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.WritingPrompt{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting writing prompts: %w", err)
	}
	return n, nil
}

func (r *writingPromptRepository) CreateBatch(ctx context.Context, prompts []models.WritingPrompt) error {
	if len(prompts) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&prompts).Error; err != nil {
		return fmt.Errorf("creating writing prompts: %w", err)
	}
	return nil
}
