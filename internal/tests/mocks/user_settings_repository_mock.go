package mocks

import (
	"context"

	"awaken/internal/models"
)

type UserSettingsRepositoryMock struct {
	GetFunc    func(ctx context.Context, userID uint) (*models.UserSettings, error)
	UpdateFunc func(ctx context.Context, settings *models.UserSettings) error
}

func (m *UserSettingsRepositoryMock) Get(ctx context.Context, userID uint) (*models.UserSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return &models.UserSettings{UserID: userID, Theme: "system", Locale: "zh-CN"}, nil
}

func (m *UserSettingsRepositoryMock) Update(ctx context.Context, settings *models.UserSettings) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, settings)
	}
	return nil
}
