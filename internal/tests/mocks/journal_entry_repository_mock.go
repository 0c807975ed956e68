package mocks

import (
	"context"
	"time"

	"awaken/internal/models"
	"awaken/internal/repositories"
)

type JournalEntryRepositoryMock struct {
	CreateFunc                func(ctx context.Context, e *models.JournalEntry) error
	GetFunc                   func(ctx context.Context, userID, id uint) (*models.JournalEntry, error)
	ListPublishedFunc         func(ctx context.Context, userID uint, limit, offset int) ([]models.JournalEntry, error)
	CountPublishedFunc        func(ctx context.Context, userID uint) (int64, error)
	CountPublishedBetweenFunc func(ctx context.Context, userID uint, from, to time.Time) (int64, error)
	RecentFunc                func(ctx context.Context, userID uint, limit int) ([]models.JournalEntry, error)
	UpdateFunc                func(ctx context.Context, userID, id uint, upd repositories.EntryUpdate) (*models.JournalEntry, error)
	DeleteFunc                func(ctx context.Context, userID, id uint) (bool, error)
}

func (m *JournalEntryRepositoryMock) Create(ctx context.Context, e *models.JournalEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil
}

func (m *JournalEntryRepositoryMock) Get(ctx context.Context, userID, id uint) (*models.JournalEntry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *JournalEntryRepositoryMock) ListPublished(ctx context.Context, userID uint, limit, offset int) ([]models.JournalEntry, error) {
	if m.ListPublishedFunc != nil {
		return m.ListPublishedFunc(ctx, userID, limit, offset)
	}
	return []models.JournalEntry{}, nil
}

func (m *JournalEntryRepositoryMock) CountPublished(ctx context.Context, userID uint) (int64, error) {
	if m.CountPublishedFunc != nil {
		return m.CountPublishedFunc(ctx, userID)
	}
	return 0, nil
}

func (m *JournalEntryRepositoryMock) CountPublishedBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	if m.CountPublishedBetweenFunc != nil {
		return m.CountPublishedBetweenFunc(ctx, userID, from, to)
	}
	return 0, nil
}

func (m *JournalEntryRepositoryMock) Recent(ctx context.Context, userID uint, limit int) ([]models.JournalEntry, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, userID, limit)
	}
	return []models.JournalEntry{}, nil
}

func (m *JournalEntryRepositoryMock) Update(ctx context.Context, userID, id uint, upd repositories.EntryUpdate) (*models.JournalEntry, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, id, upd)
	}
	return nil, nil
}

func (m *JournalEntryRepositoryMock) Delete(ctx context.Context, userID, id uint) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return false, nil
}
