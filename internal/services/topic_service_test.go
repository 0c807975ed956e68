package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awaken/internal/cache"
	"awaken/internal/llm/fallback"
	"awaken/internal/models"
	"awaken/internal/tests/mocks"
)

const topicsJSON = "```json\n" + `{"topics":[
 {"id":"1","text":"今天什么声音让你会心一笑?","category":"creative","icon":"🎵"},
 {"text":"有什么'不便'后来变成了祝福?","icon":"🎁"},
 {"id":"3","text":"  ","icon":"x"}]}` + "\n```"

func TestTopicService_GeneratesWithoutHistory(t *testing.T) {
	inv := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return mocks.Reply(topicsJSON), nil
		},
	}
	svc := NewTopicService(inv, &mocks.JournalEntryRepositoryMock{}, nil)

	topics, err := svc.Generate(context.Background(), 1, TopicRequest{})
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "1", topics[0].ID)
	assert.NotEmpty(t, topics[1].ID, "missing ids are generated")
	assert.Equal(t, "creative", topics[1].Category)

	calls := inv.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].JSONMode)
	assert.Equal(t, float32(0.8), calls[0].Temperature)
	assert.Contains(t, calls[0].Messages[0].Content, "creative writing coach")
	assert.Contains(t, calls[0].Messages[1].Content, "生成5个独特")
}

func TestTopicService_UsesHistory(t *testing.T) {
	var limit int
	entries := &mocks.JournalEntryRepositoryMock{
		RecentFunc: func(ctx context.Context, userID uint, n int) ([]models.JournalEntry, error) {
			limit = n
			return []models.JournalEntry{{Content: "和妈妈通了电话"}, {Content: "去公园散步"}}, nil
		},
	}
	inv := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return mocks.Reply(`{"topics":[{"id":"a","text":"你提到了妈妈","icon":"💝"}]}`), nil
		},
	}
	svc := NewTopicService(inv, entries, nil)

	topics, err := svc.Generate(context.Background(), 1, TopicRequest{WithHistory: true})
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "personalized", topics[0].Category)
	assert.Equal(t, 10, limit)

	prompt := inv.Calls()[0].Messages[1].Content
	assert.Contains(t, prompt, "和妈妈通了电话\n\n去公园散步")
}

func TestTopicService_NoHistoryFallsBackToFresh(t *testing.T) {
	inv := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return mocks.Reply(topicsJSON), nil
		},
	}
	svc := NewTopicService(inv, &mocks.JournalEntryRepositoryMock{}, nil)

	_, err := svc.Generate(context.Background(), 1, TopicRequest{WithHistory: true})
	require.NoError(t, err)
	assert.Contains(t, inv.Calls()[0].Messages[1].Content, "生成5个独特")
}

func TestTopicService_FailuresYieldEmptyList(t *testing.T) {
	replies := []func() (*fallback.Result, error){
		func() (*fallback.Result, error) { return nil, errors.New("rate limited everywhere") },
		func() (*fallback.Result, error) { return mocks.Reply("not json"), nil },
		func() (*fallback.Result, error) { return mocks.Reply(`{"topics":[]}`), nil },
		func() (*fallback.Result, error) { return mocks.Reply(""), nil },
	}
	for i, reply := range replies {
		inv := &mocks.InvokerMock{
			InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) { return reply() },
		}
		svc := NewTopicService(inv, &mocks.JournalEntryRepositoryMock{}, nil)

		topics, err := svc.Generate(context.Background(), 1, TopicRequest{})
		require.NoError(t, err, "case %d", i)
		assert.NotNil(t, topics, "case %d", i)
		assert.Empty(t, topics, "case %d", i)
	}
}

func TestTopicService_CachesPerUserAndMode(t *testing.T) {
	inv := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return mocks.Reply(topicsJSON), nil
		},
	}
	store := cache.NewMemory(16, time.Minute)
	svc := NewTopicService(inv, &mocks.JournalEntryRepositoryMock{}, store)

	first, err := svc.Generate(context.Background(), 1, TopicRequest{})
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), 1, TopicRequest{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, inv.Calls(), 1)

	_, err = svc.Generate(context.Background(), 2, TopicRequest{})
	require.NoError(t, err)
	assert.Len(t, inv.Calls(), 2, "other users are not served from this cache entry")
}

func TestTopicService_DoesNotCacheFailures(t *testing.T) {
	calls := 0
	inv := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("boom")
			}
			return mocks.Reply(strings.TrimSpace(topicsJSON)), nil
		},
	}
	svc := NewTopicService(inv, &mocks.JournalEntryRepositoryMock{}, cache.NewMemory(16, time.Minute))

	topics, err := svc.Generate(context.Background(), 1, TopicRequest{})
	require.NoError(t, err)
	assert.Empty(t, topics)

	topics, err = svc.Generate(context.Background(), 1, TopicRequest{})
	require.NoError(t, err)
	assert.Len(t, topics, 2)
}

func batchInvoker() *mocks.InvokerMock {
	n := 0
	return &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			n++
			return mocks.Reply(fmt.Sprintf(`{"topics":[{"id":"t","text":"topic batch %d","icon":"✨"}]}`, n)), nil
		},
	}
}

func TestTopicService_RefreshBypassesCache(t *testing.T) {
	inv := batchInvoker()
	svc := NewTopicService(inv, &mocks.JournalEntryRepositoryMock{}, cache.NewMemory(16, time.Minute))
	ctx := context.Background()

	first, err := svc.Generate(ctx, 1, TopicRequest{})
	require.NoError(t, err)
	refreshed, err := svc.Generate(ctx, 1, TopicRequest{Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, "topic batch 1", first[0].Text)
	assert.Equal(t, "topic batch 2", refreshed[0].Text)

	cached, err := svc.Generate(ctx, 1, TopicRequest{})
	require.NoError(t, err)
	assert.Equal(t, "topic batch 2", cached[0].Text, "the refreshed batch replaces the cached one")
	assert.Len(t, inv.Calls(), 2)
}

func TestTopicService_InvalidateDropsHistoryTopics(t *testing.T) {
	inv := batchInvoker()
	entries := &mocks.JournalEntryRepositoryMock{
		RecentFunc: func(ctx context.Context, userID uint, n int) ([]models.JournalEntry, error) {
			return []models.JournalEntry{{Content: "晚霞很美"}}, nil
		},
	}
	svc := NewTopicService(inv, entries, cache.NewMemory(16, time.Minute))
	ctx := context.Background()

	_, err := svc.Generate(ctx, 1, TopicRequest{WithHistory: true})
	require.NoError(t, err)
	_, err = svc.Generate(ctx, 1, TopicRequest{})
	require.NoError(t, err)
	require.Len(t, inv.Calls(), 2)

	svc.Invalidate(ctx, 1)

	again, err := svc.Generate(ctx, 1, TopicRequest{WithHistory: true})
	require.NoError(t, err)
	assert.Equal(t, "topic batch 3", again[0].Text)
	_, err = svc.Generate(ctx, 1, TopicRequest{})
	require.NoError(t, err)
	assert.Len(t, inv.Calls(), 3, "fresh topics stay cached")

	NewTopicService(inv, entries, nil).Invalidate(ctx, 1)
}
