package services

import (
	"context"
	"strings"

	"awaken/internal/models"
	"awaken/internal/repositories"
	"awaken/internal/sage"
)

type UpdateSettingsInput struct {
	Theme    *string  `json:"theme,omitempty"`
	Locale   *string  `json:"locale,omitempty"`
	Personas []string `json:"personas,omitempty"`
}

type SettingsService interface {
	Get(ctx context.Context, userID uint) (*models.UserSettings, error)
	Update(ctx context.Context, userID uint, in UpdateSettingsInput) (*models.UserSettings, error)
	// PreferredPersonas returns the user's persona selection, nil meaning all.
	PreferredPersonas(ctx context.Context, userID uint) ([]sage.PersonaKey, error)
}

type settingsService struct {
	settings repositories.UserSettingsRepository
	roster   *sage.Roster
}

func NewSettingsService(settings repositories.UserSettingsRepository, roster *sage.Roster) SettingsService {
	return &settingsService{settings: settings, roster: roster}
}

func (s *settingsService) Get(ctx context.Context, userID uint) (*models.UserSettings, error) {
	return s.settings.Get(ctx, userID)
}

func (s *settingsService) Update(ctx context.Context, userID uint, in UpdateSettingsInput) (*models.UserSettings, error) {
	current, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Theme != nil {
		theme := strings.TrimSpace(*in.Theme)
		if theme != "light" && theme != "dark" && theme != "system" {
			return nil, invalid("theme must be 'light', 'dark', or 'system'")
		}
		current.Theme = theme
	}
	if in.Locale != nil {
		locale := strings.TrimSpace(*in.Locale)
		if locale == "" {
			return nil, invalid("locale is required")
		}
		current.Locale = locale
	}
	if in.Personas != nil {
		keys := make([]sage.PersonaKey, 0, len(in.Personas))
		for _, k := range in.Personas {
			keys = append(keys, sage.PersonaKey(k))
		}
		personas, err := s.roster.Resolve(keys)
		if err != nil {
			return nil, invalidBecause(err)
		}
		names := make([]string, 0, len(personas))
		if len(in.Personas) > 0 {
			for _, p := range personas {
				names = append(names, string(p.Key))
			}
		}
		current.Personas = strings.Join(names, ",")
	}

	current.UserID = userID
	if err := s.settings.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *settingsService) PreferredPersonas(ctx context.Context, userID uint) ([]sage.PersonaKey, error) {
	current, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sage.ParseKeys(current.Personas), nil
}
