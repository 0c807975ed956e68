package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"awaken/internal/cache"
	"awaken/internal/events"
	"awaken/internal/llm/client"
	"awaken/internal/llm/fallback"
	"awaken/internal/metrics"
	"awaken/internal/models"
	"awaken/internal/repositories"
	"awaken/internal/sage"
)

const (
	topicHistorySize   = 10
	topicTemperature   = 0.8
	topicMaxTokens     = 1000
	topicSystemRole    = "You are a creative writing coach who helps users discover deeper gratitude through personalized, thought-provoking questions."
	topicJSONShapeHint = `请以JSON格式返回:
{
  "topics": [
    {"id": "1", "text": "题目内容", "category": "%s", "icon": "emoji"}
  ]
}`
)

const freshTopicsPrompt = `生成5个独特、有深度的感恩日记题目:

【核心要求】
1. 新颖有趣 - 不是普通的"你感恩什么"
2. 具体而非抽象 - 能唤起画面感
3. 情感共鸣 - 触动内心
4. 引发深思 - 鼓励更深的反思
5. 每个题目20-35字

【创意方向】
- 感官类: "今天什么声音让你会心一笑?"
- 假设类: "如果能重温这周的一个瞬间,你会选哪个?"
- 意外类: "有什么'不便'后来变成了祝福?"
- 关系类: "今天谁让你感到被看见了?"
- 成长类: "最近什么错误教会了你什么?"

`

const historyTopicsPrompt = `根据用户最近的感恩日记内容,为他们生成5个个性化的、有深度的题目。

用户最近的日记:
%s

【核心要求】
1. 深度个性化 - 基于用户提到过的主题、人物、事物
2. 引发深思 - 引导更深层的反思,而非表面
3. 具体而非抽象 - 不要泛泛的问题
4. 情感共鸣 - 触动内心,激发写作欲望
5. 每个题目20-35字

【题目方向参考】
- 追问提到的人: "你提到了[某人],有没有和TA之间从未说出口的感谢?"
- 深挖提到的主题: "你经常写到[某主题],它对你的意义到底是什么?"
- 探索新角度: "除了[提到的事物],你生活中还有什么值得更多感恩?"
- 连接过去与现在: "你和[提到的人/事]的关系这些年有什么变化?"

`

// TopicRequest selects how topics are generated.
type TopicRequest struct {
	// WithHistory grounds the topics in the user's recent entries.
	WithHistory bool
	// Refresh skips the cached batch and always asks the model.
	Refresh bool
}

type TopicService interface {
	// Generate returns journaling topics. Failures yield an empty list
	// rather than an error.
	Generate(ctx context.Context, userID uint, req TopicRequest) ([]models.Topic, error)
	// Invalidate drops the user's cached history-based topics.
	Invalidate(ctx context.Context, userID uint)
}

type topicService struct {
	invoker sage.Invoker
	entries repositories.JournalEntryRepository
	cache   cache.Cache
	log     *logrus.Entry
}

// NewTopicService builds the topic generator. store may be nil to disable caching.
func NewTopicService(invoker sage.Invoker, entries repositories.JournalEntryRepository, store cache.Cache) TopicService {
	return &topicService{
		invoker: invoker,
		entries: entries,
		cache:   store,
		log:     logrus.WithField("component", "topics"),
	}
}

type topicsReply struct {
	Topics []models.Topic `json:"topics"`
}

const (
	topicModeFresh   = "fresh"
	topicModeHistory = "history"
)

func topicCacheKey(userID uint, mode string) string {
	return fmt.Sprintf("topics:%d:%s", userID, mode)
}

func (s *topicService) Generate(ctx context.Context, userID uint, req TopicRequest) ([]models.Topic, error) {
	var history []models.JournalEntry
	if req.WithHistory {
		recent, err := s.entries.Recent(ctx, userID, topicHistorySize)
		if err != nil {
			s.log.WithError(err).Warn("could not load history, generating without it")
		}
		history = recent
	}
	mode := topicModeFresh
	if len(history) > 0 {
		mode = topicModeHistory
	}
	key := topicCacheKey(userID, mode)

	if !req.Refresh {
		if cached, ok := s.lookup(ctx, key); ok {
			return cached, nil
		}
	}

	topics, err := s.generate(ctx, history)
	if err != nil {
		events.Emit(ctx, events.TopicsFailed, events.NewWarn("topic generation failed").
			With("mode", mode).
			With("error", err.Error()))
		return []models.Topic{}, nil
	}
	s.store(ctx, key, topics)
	return topics, nil
}

func (s *topicService) Invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, topicCacheKey(userID, topicModeHistory)); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("topic cache invalidation failed")
	}
}

func (s *topicService) generate(ctx context.Context, history []models.JournalEntry) ([]models.Topic, error) {
	defaultCategory := "creative"
	prompt := freshTopicsPrompt
	if len(history) > 0 {
		defaultCategory = "personalized"
		contents := make([]string, 0, len(history))
		for _, e := range history {
			contents = append(contents, e.Content)
		}
		prompt = fmt.Sprintf(historyTopicsPrompt, strings.Join(contents, "\n\n"))
	}
	prompt += fmt.Sprintf(topicJSONShapeHint, defaultCategory)

	res, err := s.invoker.Invoke(ctx, fallback.Request{
		Messages: []client.Message{
			client.SystemMessage(topicSystemRole),
			client.UserMessage(prompt),
		},
		Temperature: topicTemperature,
		MaxTokens:   topicMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	if res.Response == nil || strings.TrimSpace(res.Response.Content) == "" {
		return nil, fmt.Errorf("model %s returned an empty reply", res.Model)
	}

	var reply topicsReply
	if err := decodeJSONReply(res.Response.Content, &reply); err != nil {
		return nil, err
	}
	topics := make([]models.Topic, 0, len(reply.Topics))
	for _, t := range reply.Topics {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		if strings.TrimSpace(t.ID) == "" {
			t.ID = uuid.NewString()
		}
		if t.Category == "" {
			t.Category = defaultCategory
		}
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("model %s returned no topics", res.Model)
	}
	return topics, nil
}

func (s *topicService) lookup(ctx context.Context, key string) ([]models.Topic, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).Warn("topic cache lookup failed")
		return nil, false
	}
	metrics.RecordTopicCache(ok)
	if !ok {
		return nil, false
	}
	var topics []models.Topic
	if err := json.Unmarshal(data, &topics); err != nil {
		s.log.WithError(err).Warn("discarding unreadable cached topics")
		return nil, false
	}
	return topics, true
}

func (s *topicService) store(ctx context.Context, key string, topics []models.Topic) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.log.WithError(err).Warn("topic cache write failed")
	}
}
