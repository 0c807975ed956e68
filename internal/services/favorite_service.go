package services

import (
	"context"
	"fmt"
	"strings"

	"awaken/internal/models"
	"awaken/internal/repositories"
)

type AddFavoriteInput struct {
	Sage            string `json:"sage"`
	Content         string `json:"content"`
	OriginalContent string `json:"originalContent,omitempty"`
}

type FavoriteService interface {
	Add(ctx context.Context, userID uint, in AddFavoriteInput) (*models.FavoriteInsight, error)
	List(ctx context.Context, userID uint) ([]models.FavoriteInsight, error)
	Remove(ctx context.Context, userID, id uint) error
}

type favoriteService struct {
	favorites repositories.FavoriteInsightRepository
}

func NewFavoriteService(favorites repositories.FavoriteInsightRepository) FavoriteService {
	return &favoriteService{favorites: favorites}
}

func (s *favoriteService) Add(ctx context.Context, userID uint, in AddFavoriteInput) (*models.FavoriteInsight, error) {
	sageName := strings.TrimSpace(in.Sage)
	if sageName == "" {
		return nil, invalid("sage is required")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, invalid("content is required")
	}
	f := &models.FavoriteInsight{
		UserID:          userID,
		Sage:            sageName,
		Content:         content,
		OriginalContent: strings.TrimSpace(in.OriginalContent),
	}
	if err := s.favorites.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *favoriteService) List(ctx context.Context, userID uint) ([]models.FavoriteInsight, error) {
	list, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.FavoriteInsight{}
	}
	return list, nil
}

func (s *favoriteService) Remove(ctx context.Context, userID, id uint) error {
	ok, err := s.favorites.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("favorite %d: %w", id, ErrNotFound)
	}
	return nil
}
