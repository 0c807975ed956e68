package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"awaken/internal/models"
)

type UserSettingsRepository interface {
	// Get returns the stored settings or defaults when the user has none.
	Get(ctx context.Context, userID uint) (*models.UserSettings, error)
	Update(ctx context.Context, settings *models.UserSettings) error
}

type userSettingsRepository struct {
	db *gorm.DB
}

func NewUserSettingsRepository(db *gorm.DB) UserSettingsRepository {
	return &userSettingsRepository{db: db}
}

func DefaultUserSettings(userID uint) *models.UserSettings {
	return &models.UserSettings{
		UserID: userID,
		Theme:  "system",
		Locale: "zh-CN",
	}
}

func (r *userSettingsRepository) Get(ctx context.Context, userID uint) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := r.db.WithContext(ctx).First(&settings, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultUserSettings(userID), nil
		}
		return nil, fmt.Errorf("getting settings for user %d: %w", userID, err)
	}
	return &settings, nil
}

func (r *userSettingsRepository) Update(ctx context.Context, settings *models.UserSettings) error {
	if settings.UserID == 0 {
		return fmt.Errorf("user id is required")
	}
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("saving settings for user %d: %w", settings.UserID, err)
	}
	return nil
}
