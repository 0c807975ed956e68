package services

import (
	"context"
	"strings"
	"time"

	"awaken/internal/models"
	"awaken/internal/repositories"
)

// Identity is what the upstream auth provider tells us about the caller.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
}

type UserService interface {
	// EnsureUser returns the local user for id, creating or refreshing it.
	EnsureUser(ctx context.Context, id Identity) (*models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
}

type userService struct {
	users repositories.UserRepository
	now   func() time.Time
}

func NewUserService(users repositories.UserRepository) UserService {
	return &userService{users: users, now: time.Now}
}

func (s *userService) EnsureUser(ctx context.Context, id Identity) (*models.User, error) {
	external := strings.TrimSpace(id.ExternalID)
	if external == "" {
		return nil, invalid("external id is required")
	}
	u := &models.User{
		ExternalID:   external,
		Email:        strings.TrimSpace(id.Email),
		Name:         strings.TrimSpace(id.Name),
		LastSignedIn: s.now(),
	}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}
