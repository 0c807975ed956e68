package mocks

import (
	"context"
	"sync"

	"awaken/internal/llm/client"
	"awaken/internal/llm/fallback"
)

type InvokerMock struct {
	InvokeFunc func(ctx context.Context, req fallback.Request) (*fallback.Result, error)

	mu    sync.Mutex
	calls []fallback.Request
}

func (m *InvokerMock) Invoke(ctx context.Context, req fallback.Request) (*fallback.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, req)
	}
	return &fallback.Result{Model: "mock", Response: &client.Response{Model: "mock"}}, nil
}

func (m *InvokerMock) Calls() []fallback.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fallback.Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reply builds a successful result carrying content.
func Reply(content string) *fallback.Result {
	return &fallback.Result{Model: "mock", Response: &client.Response{Model: "mock", Content: content}}
}
