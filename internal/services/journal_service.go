package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"awaken/internal/models"
	"awaken/internal/repositories"
	"awaken/internal/sage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CreateEntryInput struct {
	PromptID    *uint                   `json:"promptId,omitempty"`
	PromptText  string                  `json:"promptText,omitempty"`
	Content     string                  `json:"content"`
	Category    string                  `json:"category"`
	IsFreeWrite bool                    `json:"isFreeWrite"`
	IsDraft     bool                    `json:"isDraft"`
	Insights    []models.PersonaInsight `json:"sageInsights,omitempty"`
}

// UpdateEntryInput changes only the fields that are set.
type UpdateEntryInput struct {
	Content  *string                  `json:"content,omitempty"`
	Insights *[]models.PersonaInsight `json:"sageInsights,omitempty"`
	IsDraft  *bool                    `json:"isDraft,omitempty"`
}

type EntryPage struct {
	Entries []models.JournalEntry `json:"entries"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

type JournalService interface {
	Create(ctx context.Context, userID uint, in CreateEntryInput) (*models.JournalEntry, error)
	Update(ctx context.Context, userID, id uint, in UpdateEntryInput) (*models.JournalEntry, error)
	Get(ctx context.Context, userID, id uint) (*models.JournalEntry, error)
	// List pages through published entries, newest first.
	List(ctx context.Context, userID uint, limit, offset int) (*EntryPage, error)
	Delete(ctx context.Context, userID, id uint) error
	// TodayCount counts entries published since local midnight.
	TodayCount(ctx context.Context, userID uint) (int64, error)
	// Recent returns the latest entries including drafts.
	Recent(ctx context.Context, userID uint, limit int) ([]models.JournalEntry, error)
}

type journalService struct {
	entries repositories.JournalEntryRepository
	now     func() time.Time
}

func NewJournalService(entries repositories.JournalEntryRepository) JournalService {
	return &journalService{entries: entries, now: time.Now}
}

func (s *journalService) Create(ctx context.Context, userID uint, in CreateEntryInput) (*models.JournalEntry, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, invalid("content is required")
	}
	category, err := sage.ParseCategory(in.Category)
	if err != nil {
		return nil, invalidBecause(err)
	}

	e := &models.JournalEntry{
		UserID:      userID,
		PromptID:    in.PromptID,
		PromptText:  strings.TrimSpace(in.PromptText),
		Content:     content,
		Category:    string(category),
		IsFreeWrite: in.IsFreeWrite,
		IsDraft:     in.IsDraft,
	}
	if err := e.SetInsights(in.Insights); err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *journalService) Update(ctx context.Context, userID, id uint, in UpdateEntryInput) (*models.JournalEntry, error) {
	var upd repositories.EntryUpdate
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, invalid("content cannot be empty")
		}
		upd.Content = &content
	}
	if in.Insights != nil {
		var tmp models.JournalEntry
		if err := tmp.SetInsights(*in.Insights); err != nil {
			return nil, err
		}
		upd.SageInsights = &tmp.SageInsights
	}
	upd.IsDraft = in.IsDraft
	if upd.Content == nil && upd.SageInsights == nil && upd.IsDraft == nil {
		return nil, invalid("nothing to update")
	}

	e, err := s.entries.Update(ctx, userID, id, upd)
	if err != nil {
		return nil, notFound(err, "journal entry", id)
	}
	return e, nil
}

func (s *journalService) Get(ctx context.Context, userID, id uint) (*models.JournalEntry, error) {
	e, err := s.entries.Get(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "journal entry", id)
	}
	return e, nil
}

func (s *journalService) List(ctx context.Context, userID uint, limit, offset int) (*EntryPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.entries.ListPublished(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.entries.CountPublished(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	return &EntryPage{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *journalService) Delete(ctx context.Context, userID, id uint) error {
	deleted, err := s.entries.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("journal entry %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *journalService) TodayCount(ctx context.Context, userID uint) (int64, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.entries.CountPublishedBetween(ctx, userID, start, start.AddDate(0, 0, 1))
}

func (s *journalService) Recent(ctx context.Context, userID uint, limit int) ([]models.JournalEntry, error) {
	return s.entries.Recent(ctx, userID, limit)
}
