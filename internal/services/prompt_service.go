package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"awaken/internal/models"
	"awaken/internal/repositories"
	"awaken/internal/sage"
)

var defaultPrompts = map[sage.Category][]string{
	sage.Gratitude: {
		"🫂 今天有谁主动关心你了？你当时是什么感受？",
		"☀️ 今天最让你感到温暖的一个瞬间是什么？",
		"🌱 最近哪个小习惯让你感觉生活变好了？",
		"💝 你最感恩的人是谁？想对TA说什么？",
		"🎁 今天收到的最意外的善意是什么？",
		"🏠 家里有什么东西是你每天都在用，但很少感谢的？",
		"👋 今天有谁对你微笑了？",
		"🍵 今天吃到的最好吃的东西是什么？",
		"🌸 今天看到的最美的风景是什么？",
		"💪 你的身体今天为你做了什么？",
	},
	sage.Philosophical: {
		"🤔 如果今天是你生命的最后一天，你会做什么不同的选择？",
		"🌊 痛苦和快乐，哪个对你的成长更重要？",
		"🔮 十年后的你会感谢现在的你什么？",
		"🪞 你最想改变自己的什么？为什么还没改？",
		"⚖️ 自由和安全，你更看重哪个？",
		"🌙 你害怕什么？这个恐惧教会了你什么？",
		"🎭 真实的你和别人眼中的你，有什么不同？",
		"💫 什么事情让你感到活着的意义？",
		"🌿 如果可以重来，你会改变什么决定？",
		"🦋 你相信命运还是选择？",
	},
}

type PromptService interface {
	// List returns active prompts, seeding the defaults when the table is
	// empty. An empty category lists every category.
	List(ctx context.Context, category string) ([]models.WritingPrompt, error)
}

type promptService struct {
	prompts repositories.WritingPromptRepository
	log     *logrus.Entry
	seedMu  sync.Mutex
}

func NewPromptService(prompts repositories.WritingPromptRepository) PromptService {
	return &promptService{prompts: prompts, log: logrus.WithField("component", "prompts")}
}

func (s *promptService) List(ctx context.Context, category string) ([]models.WritingPrompt, error) {
	category = strings.TrimSpace(category)
	if category != "" {
		c, err := sage.ParseCategory(category)
		if err != nil {
			return nil, invalidBecause(err)
		}
		category = string(c)
	}
	if err := s.seed(ctx); err != nil {
		return nil, err
	}
	return s.prompts.ListActive(ctx, category)
}

func (s *promptService) seed(ctx context.Context) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	n, err := s.prompts.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	batch := make([]models.WritingPrompt, 0, 20)
	for _, c := range []sage.Category{sage.Gratitude, sage.Philosophical} {
		for i, text := range defaultPrompts[c] {
			batch = append(batch, models.WritingPrompt{Text: text, Category: string(c), SortOrder: i, IsActive: true})
		}
	}
	if err := s.prompts.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("seed writing prompts: %w", err)
	}
	s.log.WithField("count", len(batch)).Info("seeded writing prompts")
	return nil
}
