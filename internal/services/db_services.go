package services

import (
	"gorm.io/gorm"

	"awaken/internal/repositories"
	"awaken/internal/sage"
)

// DbServices aggregates the services backed only by the database.
type DbServices struct {
	Users     UserService
	Journal   JournalService
	Prompts   PromptService
	Favorites FavoriteService
	Settings  SettingsService
	Models    ModelCatalogService

	entries repositories.JournalEntryRepository
}

func NewDbServices(db *gorm.DB, roster *sage.Roster) *DbServices {
	entries := repositories.NewJournalEntryRepository(db)
	return &DbServices{
		Users:     NewUserService(repositories.NewUserRepository(db)),
		Journal:   NewJournalService(entries),
		Prompts:   NewPromptService(repositories.NewWritingPromptRepository(db)),
		Favorites: NewFavoriteService(repositories.NewFavoriteInsightRepository(db)),
		Settings:  NewSettingsService(repositories.NewUserSettingsRepository(db), roster),
		Models:    NewModelCatalogService(repositories.NewModelSettingRepository(db)),
		entries:   entries,
	}
}
