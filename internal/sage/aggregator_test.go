package sage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awaken/internal/llm/fallback"
	"awaken/internal/tests/mocks"
)

// personaOf finds which persona a request was built for from its system prompt.
func personaOf(t *testing.T, roster *Roster, req fallback.Request) PersonaKey {
	t.Helper()
	if len(req.Messages) == 0 {
		t.Errorf("request has no messages")
		return ""
	}
	for _, p := range roster.All() {
		if strings.HasPrefix(req.Messages[0].Content, p.SystemPrompt) {
			return p.Key
		}
	}
	t.Errorf("request does not carry a persona prompt")
	return ""
}

func echoInvoker(t *testing.T, roster *Roster, failing PersonaKey) *mocks.InvokerMock {
	return &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			key := personaOf(t, roster, req)
			if key == failing {
				return nil, errors.New("HTTP 429: exhausted")
			}
			return mocks.Reply("insight from " + string(key)), nil
		},
	}
}

func TestCollect_ParallelOmitDropsFailedPersona(t *testing.T) {
	roster := MustLoadRoster()
	agg := NewAggregator(echoInvoker(t, roster, Laozi), roster, Options{Mode: ModeParallel, Policy: PolicyOmit})

	insights, err := agg.Collect(context.Background(), BatchRequest{
		Task:     TaskDeepInsight,
		Content:  "今天母亲给我煮了一碗面",
		Category: Gratitude,
	})
	require.NoError(t, err)
	require.Len(t, insights, 3)

	assert.Equal(t, "confucius", insights[0].Key)
	assert.Equal(t, "buddha", insights[1].Key)
	assert.Equal(t, "plato", insights[2].Key)
	for _, in := range insights {
		assert.Equal(t, "insight from "+in.Key, in.Insight)
		assert.False(t, in.Degraded)
	}
}

func TestCollect_PlaceholderKeepsFullSet(t *testing.T) {
	roster := MustLoadRoster()
	agg := NewAggregator(echoInvoker(t, roster, Buddha), roster, Options{})

	insights, err := agg.Collect(context.Background(), BatchRequest{
		Task:     TaskDeepInsight,
		Content:  "我在思考自由",
		Category: Philosophical,
	})
	require.NoError(t, err)
	require.Len(t, insights, 4)

	failed := insights[2]
	assert.Equal(t, "buddha", failed.Key)
	assert.Equal(t, "释迦牟尼", failed.Sage)
	assert.Equal(t, "🙏", failed.Emoji)
	assert.NotEmpty(t, failed.Insight)
	assert.Equal(t, mustTask(TaskDeepInsight).Placeholder, failed.Insight)
	assert.True(t, failed.Degraded)

	assert.False(t, insights[0].Degraded)
	assert.Equal(t, "insight from laozi", insights[1].Insight)
}

func TestCollect_AllFailingStillReturnsBatch(t *testing.T) {
	roster := MustLoadRoster()
	invoker := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return nil, errors.New("gateway down")
		},
	}

	agg := NewAggregator(invoker, roster, Options{Policy: PolicyPlaceholder})
	insights, err := agg.Collect(context.Background(), BatchRequest{Task: TaskFeedback, Content: "x", Category: Gratitude})
	require.NoError(t, err)
	require.Len(t, insights, 4)
	for _, in := range insights {
		assert.Equal(t, "写得真好！", in.Insight)
		assert.True(t, in.Degraded)
	}

	agg = NewAggregator(invoker, roster, Options{Policy: PolicyOmit})
	insights, err = agg.Collect(context.Background(), BatchRequest{Task: TaskFeedback, Content: "x", Category: Gratitude})
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestCollect_SequentialPausesBetweenCalls(t *testing.T) {
	roster := MustLoadRoster()

	var mu sync.Mutex
	var events []string
	invoker := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			key := personaOf(t, roster, req)
			mu.Lock()
			events = append(events, "call:"+string(key))
			mu.Unlock()
			if key == Plato {
				return nil, errors.New("boom")
			}
			return mocks.Reply("ok"), nil
		},
	}
	var pauses []time.Duration
	pause := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		events = append(events, "pause")
		mu.Unlock()
		pauses = append(pauses, d)
		return nil
	}

	agg := NewAggregator(invoker, roster, Options{
		Mode:   ModeSequential,
		Policy: PolicyOmit,
		Pace:   time.Second,
		Pause:  pause,
	})
	insights, err := agg.Collect(context.Background(), BatchRequest{Task: TaskBlessing, Content: "自由记录"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"call:confucius", "pause",
		"call:laozi", "pause",
		"call:buddha", "pause",
		"call:plato",
	}, events)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, pauses)
	require.Len(t, insights, 3)
	assert.Equal(t, "buddha", insights[2].Key)
}

func TestCollect_SequentialStopsWhenPauseCancelled(t *testing.T) {
	roster := MustLoadRoster()
	invoker := &mocks.InvokerMock{}
	agg := NewAggregator(invoker, roster, Options{
		Mode: ModeSequential,
		Pause: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	})

	_, err := agg.Collect(context.Background(), BatchRequest{Task: TaskBlessing, Content: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, invoker.Calls(), 1)
}

func TestCollect_RequestedPersonasKeepOrder(t *testing.T) {
	roster := MustLoadRoster()
	agg := NewAggregator(echoInvoker(t, roster, ""), roster, Options{})

	insights, err := agg.Collect(context.Background(), BatchRequest{
		Task:     TaskDeepInsight,
		Content:  "x",
		Category: Gratitude,
		Personas: []PersonaKey{Plato, Confucius},
	})
	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Equal(t, "plato", insights[0].Key)
	assert.Equal(t, "confucius", insights[1].Key)
}

func TestCollect_IdenticalInputIdenticalStructure(t *testing.T) {
	roster := MustLoadRoster()
	agg := NewAggregator(echoInvoker(t, roster, Laozi), roster, Options{})
	req := BatchRequest{Task: TaskDeepInsight, Content: "同样的内容", Category: Gratitude}

	first, err := agg.Collect(context.Background(), req)
	require.NoError(t, err)
	second, err := agg.Collect(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].Sage, second[i].Sage)
		assert.Equal(t, first[i].Degraded, second[i].Degraded)
	}
}

func TestCollect_InputErrors(t *testing.T) {
	roster := MustLoadRoster()
	invoker := &mocks.InvokerMock{}
	agg := NewAggregator(invoker, roster, Options{})

	_, err := agg.Collect(context.Background(), BatchRequest{Task: TaskDeepInsight, Content: "  ", Category: Gratitude})
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = agg.Collect(context.Background(), BatchRequest{Task: TaskDeepInsight, Content: "x", Category: "joy"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = agg.Collect(context.Background(), BatchRequest{Task: TaskDeepInsight, Content: "x", Category: Gratitude, Personas: []PersonaKey{"zeus"}})
	assert.ErrorIs(t, err, ErrUnknownPersona)

	_, err = agg.Collect(context.Background(), BatchRequest{Task: "oracle", Content: "x"})
	assert.Error(t, err)

	assert.Empty(t, invoker.Calls())
}

func TestCollect_EmptyOutputUsesDefaultText(t *testing.T) {
	roster := MustLoadRoster()
	invoker := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return mocks.Reply("   "), nil
		},
	}
	agg := NewAggregator(invoker, roster, Options{})

	insights, err := agg.Collect(context.Background(), BatchRequest{Task: TaskDeepInsight, Content: "x", Category: Gratitude})
	require.NoError(t, err)
	for _, in := range insights {
		assert.Equal(t, "请继续你的思考...", in.Insight)
		assert.False(t, in.Degraded)
	}
}

func TestAsk_PropagatesFailure(t *testing.T) {
	roster := MustLoadRoster()
	boom := errors.New("HTTP 500: boom")
	invoker := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return nil, boom
		},
	}
	agg := NewAggregator(invoker, roster, Options{})

	_, err := agg.Ask(context.Background(), TaskInsight, Confucius, Gratitude, "x")
	assert.ErrorIs(t, err, boom)
}

func TestAsk_BuildsFramedPrompt(t *testing.T) {
	roster := MustLoadRoster()
	invoker := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return mocks.Reply("引导"), nil
		},
	}
	agg := NewAggregator(invoker, roster, Options{})

	insight, err := agg.Ask(context.Background(), TaskInsight, Laozi, Philosophical, "什么是道")
	require.NoError(t, err)
	assert.Equal(t, "老子", insight.Sage)
	assert.Equal(t, "引导", insight.Insight)

	calls := invoker.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, 2)
	assert.Contains(t, calls[0].Messages[0].Content, "用户正在进行哲思写作练习")
	assert.Contains(t, calls[0].Messages[0].Content, "100-150字")
	assert.Equal(t, "我的写作内容：\n\n什么是道", calls[0].Messages[1].Content)
	assert.Equal(t, float32(0.7), calls[0].Temperature)
	assert.Equal(t, 500, calls[0].MaxTokens)
}

func TestSummarize(t *testing.T) {
	roster := MustLoadRoster()
	long := strings.Repeat("水", 150)
	invoker := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return mocks.Reply("  上善若水，感恩常在。  "), nil
		},
	}
	agg := NewAggregator(invoker, roster, Options{})

	summary, degraded, err := agg.Summarize(context.Background(), "记录", []SummaryInput{
		{Sage: "老子", Insight: long},
		{Sage: "孔子", Insight: "仁者爱人"},
	})
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, "上善若水，感恩常在。", summary)

	user := invoker.Calls()[0].Messages[1].Content
	assert.Contains(t, user, "老子:“"+strings.Repeat("水", 100)+"...”")
	assert.NotContains(t, user, strings.Repeat("水", 101))
	assert.Contains(t, user, "孔子:“仁者爱人...”")
}

func TestSummarize_FailureReturnsCannedText(t *testing.T) {
	roster := MustLoadRoster()
	invoker := &mocks.InvokerMock{
		InvokeFunc: func(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
			return nil, errors.New("HTTP 429: limited")
		},
	}
	agg := NewAggregator(invoker, roster, Options{})

	summary, degraded, err := agg.Summarize(context.Background(), "记录", nil)
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.Equal(t, "感恩你的分享，继续保持这份觉察。", summary)
}

func TestParseModeAndPolicy(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeParallel, m)
	m, err = ParseMode("Sequential")
	require.NoError(t, err)
	assert.Equal(t, ModeSequential, m)
	_, err = ParseMode("batch")
	assert.Error(t, err)

	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPlaceholder, p)
	p, err = ParsePolicy("omit")
	require.NoError(t, err)
	assert.Equal(t, PolicyOmit, p)
	_, err = ParsePolicy("drop")
	assert.Error(t, err)
}
