package mocks

import (
	"context"
	"sync"

	"awaken/internal/llm/client"
)

type CompleterMock struct {
	CompleteFunc func(ctx context.Context, req client.Request) (*client.Response, error)

	mu    sync.Mutex
	calls []client.Request
}

func (m *CompleterMock) Complete(ctx context.Context, req client.Request) (*client.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &client.Response{Model: req.Model}, nil
}

// Models returns the model of every call in the order the calls were made.
func (m *CompleterMock) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Model
	}
	return out
}

func (m *CompleterMock) Calls() []client.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]client.Request, len(m.calls))
	copy(out, m.calls)
	return out
}
