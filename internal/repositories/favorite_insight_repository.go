package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"awaken/internal/models"
)

type FavoriteInsightRepository interface {
	Create(ctx context.Context, f *models.FavoriteInsight) error
	ListByUser(ctx context.Context, userID uint) ([]models.FavoriteInsight, error)
	Delete(ctx context.Context, userID, id uint) (bool, error)
}

type favoriteInsightRepository struct {
	db *gorm.DB
}

func NewFavoriteInsightRepository(db *gorm.DB) FavoriteInsightRepository {
	return &favoriteInsightRepository{db: db}
}

func (r *favoriteInsightRepository) Create(ctx context.Context, f *models.FavoriteInsight) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("creating favorite insight: %w", err)
	}
	return nil
}

func (r *favoriteInsightRepository) ListByUser(ctx context.Context, userID uint) ([]models.FavoriteInsight, error) {
	var list []models.FavoriteInsight
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing favorite insights: %w", err)
	}
	return list, nil
}

func (r *favoriteInsightRepository) Delete(ctx context.Context, userID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.FavoriteInsight{})
	if res.Error != nil {
		return false, fmt.Errorf("deleting favorite insight %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
