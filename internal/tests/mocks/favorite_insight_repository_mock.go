package mocks

import (
	"context"

	"awaken/internal/models"
)

type FavoriteInsightRepositoryMock struct {
	CreateFunc     func(ctx context.Context, f *models.FavoriteInsight) error
	ListByUserFunc func(ctx context.Context, userID uint) ([]models.FavoriteInsight, error)
	DeleteFunc     func(ctx context.Context, userID, id uint) (bool, error)
}

func (m *FavoriteInsightRepositoryMock) Create(ctx context.Context, f *models.FavoriteInsight) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, f)
	}
	return nil
}

func (m *FavoriteInsightRepositoryMock) ListByUser(ctx context.Context, userID uint) ([]models.FavoriteInsight, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []models.FavoriteInsight{}, nil
}

func (m *FavoriteInsightRepositoryMock) Delete(ctx context.Context, userID, id uint) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return false, nil
}
