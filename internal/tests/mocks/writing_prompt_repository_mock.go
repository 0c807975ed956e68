package mocks

import (
	"context"

	"awaken/internal/models"
)

type WritingPromptRepositoryMock struct {
	ListActiveFunc  func(ctx context.Context, category string) ([]models.WritingPrompt, error)
	CountFunc       func(ctx context.Context) (int64, error)
	CreateBatchFunc func(ctx context.Context, prompts []models.WritingPrompt) error
}

func (m *WritingPromptRepositoryMock) ListActive(ctx context.Context, category string) ([]models.WritingPrompt, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, category)
	}
	return []models.WritingPrompt{}, nil
}

func (m *WritingPromptRepositoryMock) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *WritingPromptRepositoryMock) CreateBatch(ctx context.Context, prompts []models.WritingPrompt) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, prompts)
	}
	return nil
}
