package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awaken/internal/models"
	"awaken/internal/sage"
	"awaken/internal/tests/mocks"
)

func TestSettingsService_Update(t *testing.T) {
	var saved *models.UserSettings
	repo := &mocks.UserSettingsRepositoryMock{
		UpdateFunc: func(ctx context.Context, s *models.UserSettings) error {
			saved = s
			return nil
		},
	}
	svc := NewSettingsService(repo, sage.MustLoadRoster())

	theme := "dark"
	got, err := svc.Update(context.Background(), 4, UpdateSettingsInput{Theme: &theme, Personas: []string{"Plato", "laozi"}})
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
	assert.Equal(t, "zh-CN", got.Locale)
	assert.Equal(t, "plato,laozi", saved.Personas)
	assert.Equal(t, uint(4), saved.UserID)
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	svc := NewSettingsService(&mocks.UserSettingsRepositoryMock{}, sage.MustLoadRoster())

	bad := "neon"
	_, err := svc.Update(context.Background(), 1, UpdateSettingsInput{Theme: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(context.Background(), 1, UpdateSettingsInput{Personas: []string{"socrates"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, sage.ErrUnknownPersona)

	blank := " "
	_, err = svc.Update(context.Background(), 1, UpdateSettingsInput{Locale: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSettingsService_EmptyPersonaListMeansAll(t *testing.T) {
	var saved *models.UserSettings
	repo := &mocks.UserSettingsRepositoryMock{
		GetFunc: func(ctx context.Context, userID uint) (*models.UserSettings, error) {
			return &models.UserSettings{UserID: userID, Theme: "system", Locale: "zh-CN", Personas: "laozi"}, nil
		},
		UpdateFunc: func(ctx context.Context, s *models.UserSettings) error {
			saved = s
			return nil
		},
	}
	svc := NewSettingsService(repo, sage.MustLoadRoster())

	keys, err := svc.PreferredPersonas(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []sage.PersonaKey{"laozi"}, keys)

	_, err = svc.Update(context.Background(), 1, UpdateSettingsInput{Personas: []string{}})
	require.NoError(t, err)
	assert.Empty(t, saved.Personas)
}
