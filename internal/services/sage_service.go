package services

import (
	"context"
	"errors"
	"fmt"

	"awaken/internal/models"
	"awaken/internal/sage"
)

// SageAggregator is the subset of *sage.Aggregator the service needs.
type SageAggregator interface {
	Collect(ctx context.Context, req sage.BatchRequest) ([]models.PersonaInsight, error)
	Ask(ctx context.Context, task sage.TaskName, key sage.PersonaKey, category sage.Category, content string) (models.PersonaInsight, error)
	Summarize(ctx context.Context, content string, inputs []sage.SummaryInput) (string, bool, error)
}

type Summary struct {
	Summary  string `json:"summary"`
	Degraded bool   `json:"degraded"`
}

type SageService interface {
	// Insight asks one sage for short guidance while the user writes.
	Insight(ctx context.Context, content, sageKey, category string) (*models.PersonaInsight, error)
	// Insights asks several sages at once. With no explicit personas the
	// user's preferred set is used.
	Insights(ctx context.Context, userID uint, content, category string, personas []string) ([]models.PersonaInsight, error)
	Blessings(ctx context.Context, userID uint, content string) ([]models.PersonaInsight, error)
	Feedback(ctx context.Context, userID uint, content, category string) ([]models.PersonaInsight, error)
	Summary(ctx context.Context, content string, inputs []sage.SummaryInput) (*Summary, error)
}

type sageService struct {
	agg      SageAggregator
	settings SettingsService
}

func NewSageService(agg SageAggregator, settings SettingsService) SageService {
	return &sageService{agg: agg, settings: settings}
}

func (s *sageService) Insight(ctx context.Context, content, sageKey, category string) (*models.PersonaInsight, error) {
	c, err := sage.ParseCategory(category)
	if err != nil {
		return nil, sageInputError(err)
	}
	insight, err := s.agg.Ask(ctx, sage.TaskInsight, sage.PersonaKey(sageKey), c, content)
	if err != nil {
		return nil, sageInputError(err)
	}
	return &insight, nil
}

func (s *sageService) Insights(ctx context.Context, userID uint, content, category string, personas []string) ([]models.PersonaInsight, error) {
	c, err := sage.ParseCategory(category)
	if err != nil {
		return nil, sageInputError(err)
	}
	return s.collect(ctx, userID, sage.TaskDeepInsight, content, c, personas)
}

func (s *sageService) Blessings(ctx context.Context, userID uint, content string) ([]models.PersonaInsight, error) {
	return s.collect(ctx, userID, sage.TaskBlessing, content, "", nil)
}

func (s *sageService) Feedback(ctx context.Context, userID uint, content, category string) ([]models.PersonaInsight, error) {
	c, err := sage.ParseCategory(category)
	if err != nil {
		return nil, sageInputError(err)
	}
	return s.collect(ctx, userID, sage.TaskFeedback, content, c, nil)
}

func (s *sageService) Summary(ctx context.Context, content string, inputs []sage.SummaryInput) (*Summary, error) {
	if len(inputs) == 0 {
		return nil, invalid("insights are required")
	}
	text, degraded, err := s.agg.Summarize(ctx, content, inputs)
	if err != nil {
		return nil, sageInputError(err)
	}
	return &Summary{Summary: text, Degraded: degraded}, nil
}

func (s *sageService) collect(ctx context.Context, userID uint, task sage.TaskName, content string, category sage.Category, explicit []string) ([]models.PersonaInsight, error) {
	var keys []sage.PersonaKey
	if len(explicit) > 0 {
		for _, k := range explicit {
			keys = append(keys, sage.PersonaKey(k))
		}
	} else if s.settings != nil {
		preferred, err := s.settings.PreferredPersonas(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load persona preferences: %w", err)
		}
		keys = preferred
	}

	insights, err := s.agg.Collect(ctx, sage.BatchRequest{
		Task:     task,
		Content:  content,
		Category: category,
		Personas: keys,
	})
	if err != nil {
		return nil, sageInputError(err)
	}
	if insights == nil {
		insights = []models.PersonaInsight{}
	}
	return insights, nil
}

// sageInputError marks caller mistakes as invalid input and leaves
// upstream failures untouched.
func sageInputError(err error) error {
	if errors.Is(err, sage.ErrEmptyContent) || errors.Is(err, sage.ErrUnknownPersona) || errors.Is(err, sage.ErrUnknownCategory) {
		return invalidBecause(err)
	}
	return err
}
