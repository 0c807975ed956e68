package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awaken/internal/cache"
	"awaken/internal/models"
	"awaken/internal/tests/mocks"
)

func TestNewServices_JournalWritesRefreshHistoryTopics(t *testing.T) {
	entries := &mocks.JournalEntryRepositoryMock{
		RecentFunc: func(ctx context.Context, userID uint, n int) ([]models.JournalEntry, error) {
			return []models.JournalEntry{{Content: "今天和朋友喝茶"}}, nil
		},
		DeleteFunc: func(ctx context.Context, userID, id uint) (bool, error) {
			return true, nil
		},
	}
	inv := batchInvoker()
	db := &DbServices{Journal: NewJournalService(entries), entries: entries}
	svc := NewServices(db, nil, inv, cache.NewMemory(16, time.Minute))
	ctx := context.Background()
	history := TopicRequest{WithHistory: true}

	generate := func() string {
		t.Helper()
		topics, err := svc.Topics.Generate(ctx, 1, history)
		require.NoError(t, err)
		require.NotEmpty(t, topics)
		return topics[0].Text
	}

	assert.Equal(t, "topic batch 1", generate())
	assert.Equal(t, "topic batch 1", generate(), "served from cache")

	_, err := svc.Journal.Create(ctx, 1, CreateEntryInput{Content: "新的一篇", Category: "gratitude"})
	require.NoError(t, err)
	assert.Equal(t, "topic batch 2", generate())

	require.NoError(t, svc.Journal.Delete(ctx, 1, 9))
	assert.Equal(t, "topic batch 3", generate())

	_, err = svc.Journal.Create(ctx, 1, CreateEntryInput{Content: " ", Category: "gratitude"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "topic batch 3", generate(), "failed writes keep the cache")

	assert.NotSame(t, db, svc.DbServices, "the caller's DbServices is left untouched")
}
