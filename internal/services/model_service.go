package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"awaken/internal/assets"
	"awaken/internal/models"
	"awaken/internal/repositories"
)

var ErrModelNotFound = errors.New("model not found")

// ModelCatalogService exposes the embedded model catalogue and decides the
// fallback priority list from it.
type ModelCatalogService interface {
	Startup(ctx context.Context) error
	ListModelGroups() ([]models.LLMModelGroup, error)
	GetModel(modelKey string) (*models.LLMModel, error)
	// SetModelEnabled persists the toggle. The running chain is unchanged
	// until the next start.
	SetModelEnabled(ctx context.Context, modelKey string, enabled bool) (*models.LLMModel, error)
	// PriorityList builds the chain: preferred first, then fallbacks when
	// given, otherwise the enabled catalogue models in catalogue order.
	PriorityList(preferred string, fallbacks []string) []string
}

type modelCatalogService struct {
	repo repositories.ModelSettingRepository
	data []byte
	log  *logrus.Entry

	mu            sync.RWMutex
	providerOrder []string
	providerNames map[string]string
	ordered       []*catalogModel
	byKey         map[string]*catalogModel
	settings      map[string]bool
	chain         []string
}

type catalogModel struct {
	Key         string
	ProviderID  string
	DisplayName string
	APIName     string
	Free        bool
}

type rawModelFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Models      []rawModel `json:"models"`
}

type rawModel struct {
	DisplayName string `json:"displayName"`
	APIName     string `json:"apiName"`
	Free        bool   `json:"free,omitempty"`
}

func NewModelCatalogService(repo repositories.ModelSettingRepository) ModelCatalogService {
	return newModelCatalogService(repo, assets.ModelsData)
}

func newModelCatalogService(repo repositories.ModelSettingRepository, data []byte) *modelCatalogService {
	return &modelCatalogService{
		repo:          repo,
		data:          data,
		log:           logrus.WithField("component", "models"),
		providerNames: make(map[string]string),
		byKey:         make(map[string]*catalogModel),
		settings:      make(map[string]bool),
	}
}

func (s *modelCatalogService) Startup(ctx context.Context) error {
	var parsed rawModelFile
	if err := json.Unmarshal(s.data, &parsed); err != nil {
		return fmt.Errorf("parse models asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, provider := range parsed.Providers {
		providerID := strings.TrimSpace(provider.ID)
		if providerID == "" {
			continue
		}
		s.providerNames[providerID] = strings.TrimSpace(provider.DisplayName)
		s.providerOrder = append(s.providerOrder, providerID)
		for _, mdl := range provider.Models {
			apiName := strings.TrimSpace(mdl.APIName)
			if apiName == "" {
				continue
			}
			key := computeModelKey(providerID, apiName)
			if _, dup := s.byKey[key]; dup {
				continue
			}
			cm := &catalogModel{
				Key:         key,
				ProviderID:  providerID,
				DisplayName: strings.TrimSpace(mdl.DisplayName),
				APIName:     apiName,
				Free:        mdl.Free,
			}
			s.byKey[key] = cm
			s.ordered = append(s.ordered, cm)
		}
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load model settings: %w", err)
	}
	for _, setting := range existing {
		s.settings[setting.ModelKey] = setting.Enabled
	}
	for _, def := range s.ordered {
		if _, ok := s.settings[def.Key]; ok {
			continue
		}
		if _, err := s.repo.Upsert(ctx, def.Key, def.ProviderID, true); err != nil {
			return fmt.Errorf("seed model setting for %s: %w", def.Key, err)
		}
		s.settings[def.Key] = true
	}
	s.log.WithField("models", len(s.ordered)).Debug("model catalogue loaded")
	return nil
}

func (s *modelCatalogService) ListModelGroups() ([]models.LLMModelGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.LLMModelGroup, 0, len(s.providerOrder))
	for _, providerID := range s.providerOrder {
		group := models.LLMModelGroup{
			ProviderID:   providerID,
			ProviderName: s.providerName(providerID),
			Models:       []models.LLMModel{},
		}
		for _, mdl := range s.ordered {
			if mdl.ProviderID == providerID {
				group.Models = append(group.Models, s.toLLMModel(mdl))
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *modelCatalogService) GetModel(modelKey string) (*models.LLMModel, error) {
	modelKey = strings.TrimSpace(modelKey)
	if modelKey == "" {
		return nil, fmt.Errorf("model key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog, ok := s.byKey[modelKey]
	if !ok {
		return nil, fmt.Errorf("model %s: %w", modelKey, ErrModelNotFound)
	}
	model := s.toLLMModel(catalog)
	return &model, nil
}

func (s *modelCatalogService) SetModelEnabled(ctx context.Context, modelKey string, enabled bool) (*models.LLMModel, error) {
	modelKey = strings.TrimSpace(modelKey)
	if modelKey == "" {
		return nil, fmt.Errorf("model key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, ok := s.byKey[modelKey]
	if !ok {
		return nil, fmt.Errorf("model %s: %w", modelKey, ErrModelNotFound)
	}
	if _, err := s.repo.Upsert(ctx, modelKey, catalog.ProviderID, enabled); err != nil {
		return nil, err
	}
	s.settings[modelKey] = enabled
	model := s.toLLMModel(catalog)
	return &model, nil
}

func (s *modelCatalogService) PriorityList(preferred string, fallbacks []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []string
	if p := strings.TrimSpace(preferred); p != "" {
		candidates = append(candidates, p)
	}
	if len(fallbacks) > 0 {
		candidates = append(candidates, fallbacks...)
	} else {
		for _, mdl := range s.ordered {
			if s.settings[mdl.Key] {
				candidates = append(candidates, mdl.APIName)
			}
		}
	}

	seen := make(map[string]bool, len(candidates))
	chain := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		chain = append(chain, c)
	}
	s.chain = chain
	return append([]string(nil), chain...)
}

func (s *modelCatalogService) providerName(providerID string) string {
	if name, ok := s.providerNames[providerID]; ok && name != "" {
		return name
	}
	return providerID
}

func (s *modelCatalogService) toLLMModel(mdl *catalogModel) models.LLMModel {
	priority := -1
	for i, name := range s.chain {
		if name == mdl.APIName {
			priority = i
			break
		}
	}
	return models.LLMModel{
		Key:          mdl.Key,
		DisplayName:  mdl.DisplayName,
		APIName:      mdl.APIName,
		ProviderID:   mdl.ProviderID,
		ProviderName: s.providerName(mdl.ProviderID),
		Free:         mdl.Free,
		Enabled:      s.settings[mdl.Key],
		Priority:     priority,
	}
}

func computeModelKey(providerID, apiName string) string {
	return providerID + "|" + apiName
}
