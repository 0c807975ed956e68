package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"awaken/internal/models"
)

// EntryUpdate carries the optional fields a journal entry update may change.
type EntryUpdate struct {
	Content      *string
	SageInsights *string
	IsDraft      *bool
}

type JournalEntryRepository interface {
	Create(ctx context.Context, e *models.JournalEntry) error
	Get(ctx context.Context, userID, id uint) (*models.JournalEntry, error)
	// ListPublished returns the user's non-draft entries, newest first.
	ListPublished(ctx context.Context, userID uint, limit, offset int) ([]models.JournalEntry, error)
	CountPublished(ctx context.Context, userID uint) (int64, error)
	CountPublishedBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error)
	// Recent returns the user's latest entries including drafts.
	Recent(ctx context.Context, userID uint, limit int) ([]models.JournalEntry, error)
	Update(ctx context.Context, userID, id uint, upd EntryUpdate) (*models.JournalEntry, error)
	Delete(ctx context.Context, userID, id uint) (bool, error)
}

type journalEntryRepository struct {
	db *gorm.DB
}

func NewJournalEntryRepository(db *gorm.DB) JournalEntryRepository {
	return &journalEntryRepository{db: db}
}

func (r *journalEntryRepository) Create(ctx context.Context, e *models.JournalEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("creating journal entry: %w", err)
	}
	return nil
}

func (r *journalEntryRepository) Get(ctx context.Context, userID, id uint) (*models.JournalEntry, error) {
	var e models.JournalEntry
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("journal entry %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("getting journal entry %d: %w", id, err)
	}
	return &e, nil
}

func (r *journalEntryRepository) published(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("user_id = ? AND is_draft = ?", userID, false)
}

func (r *journalEntryRepository) ListPublished(ctx context.Context, userID uint, limit, offset int) ([]models.JournalEntry, error) {
	var list []models.JournalEntry
	q := r.published(ctx, userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	return list, nil
}

func (r *journalEntryRepository) CountPublished(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.published(ctx, userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting journal entries: %w", err)
	}
	return n, nil
}

func (r *journalEntryRepository) CountPublishedBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var n int64
	err := r.published(ctx, userID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting journal entries in range: %w", err)
	}
	return n, nil
}

func (r *journalEntryRepository) Recent(ctx context.Context, userID uint, limit int) ([]models.JournalEntry, error) {
	var list []models.JournalEntry
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing recent journal entries: %w", err)
	}
	return list, nil
}

func (r *journalEntryRepository) Update(ctx context.Context, userID, id uint, upd EntryUpdate) (*models.JournalEntry, error) {
	changes := map[string]any{}
	if upd.Content != nil {
		changes["content"] = *upd.Content
	}
	if upd.SageInsights != nil {
		changes["sage_insights"] = *upd.SageInsights
	}
	if upd.IsDraft != nil {
		changes["is_draft"] = *upd.IsDraft
	}
	if len(changes) > 0 {
		res := r.db.WithContext(ctx).
			Model(&models.JournalEntry{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("updating journal entry %d: %w", id, res.Error)
		}
	}
	return r.Get(ctx, userID, id)
}

func (r *journalEntryRepository) Delete(ctx context.Context, userID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.JournalEntry{})
	if res.Error != nil {
		return false, fmt.Errorf("deleting journal entry %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
