package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awaken/internal/models"
	"awaken/internal/tests/mocks"
)

func TestFavoriteService_Add(t *testing.T) {
	repo := &mocks.FavoriteInsightRepositoryMock{
		CreateFunc: func(ctx context.Context, f *models.FavoriteInsight) error {
			f.ID = 8
			return nil
		},
	}
	svc := NewFavoriteService(repo)

	f, err := svc.Add(context.Background(), 2, AddFavoriteInput{Sage: "buddha", Content: " 一切有为法 ", OriginalContent: "原文"})
	require.NoError(t, err)
	assert.Equal(t, uint(8), f.ID)
	assert.Equal(t, uint(2), f.UserID)
	assert.Equal(t, "一切有为法", f.Content)

	_, err = svc.Add(context.Background(), 2, AddFavoriteInput{Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Add(context.Background(), 2, AddFavoriteInput{Sage: "plato"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFavoriteService_ListAndRemove(t *testing.T) {
	repo := &mocks.FavoriteInsightRepositoryMock{
		ListByUserFunc: func(ctx context.Context, userID uint) ([]models.FavoriteInsight, error) { return nil, nil },
		DeleteFunc: func(ctx context.Context, userID, id uint) (bool, error) {
			return id == 1, nil
		},
	}
	svc := NewFavoriteService(repo)

	list, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, list)

	assert.NoError(t, svc.Remove(context.Background(), 1, 1))
	assert.ErrorIs(t, svc.Remove(context.Background(), 1, 2), ErrNotFound)
}
