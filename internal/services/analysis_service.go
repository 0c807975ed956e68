package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"awaken/internal/llm/client"
	"awaken/internal/llm/fallback"
	"awaken/internal/models"
	"awaken/internal/repositories"
	"awaken/internal/sage"
)

// ErrAnalysisFailed wraps upstream and decoding failures. Callers may retry.
var ErrAnalysisFailed = errors.New("analysis failed")

const (
	analysisEntryLimit  = 30
	analysisTemperature = 0.7
	analysisMaxTokens   = 2000
	analysisSystem      = "你是一位温暖而专业的心理洞察师，擅长从日记中看见一个人的关系、意识状态与成长轨迹。你只输出一个 JSON 对象，不输出任何其他文字。"
)

type analysisKind struct {
	subtitle string
	task     string
	keys     []string
}

var analysisKinds = map[models.AnalysisType]analysisKind{
	models.AnalysisRelationships: {
		subtitle: "基于社会网络分析",
		task: `分析用户日记中出现的人物关系。返回 JSON:
{"summary": "整体关系概述", "people": [{"name": "人物", "relation": "关系", "mentions": 次数, "sentiment": "情感基调", "note": "简短观察"}], "insight": "关于关系网络的洞察与建议"}`,
		keys: []string{"summary", "people", "insight"},
	},
	models.AnalysisConsciousness: {
		subtitle: "基于 David Hawkins 意识地图",
		task: `依据 David Hawkins 意识地图评估日记体现的意识层级。返回 JSON:
{"overallLevel": 数值, "levelName": "层级名称", "distribution": {"low": 百分比, "mid": 百分比, "high": 百分比}, "levelBreakdown": {"high": [{"phrase": "原文短句", "level": 数值, "levelName": "层级"}], "mid": [], "low": []}, "progressSummary": "进展总结", "encouragement": "鼓励的话"}`,
		keys: []string{"overallLevel", "levelName", "distribution", "levelBreakdown", "progressSummary", "encouragement"},
	},
	models.AnalysisGrowth: {
		subtitle: "基于David Hawkins意识层级",
		task: `按时间顺序梳理用户的成长轨迹。返回 JSON:
{"currentLevel": "当前状态", "journeyDescription": "成长历程描述", "shifts": [{"from": "过去的状态", "to": "现在的状态", "evidence": "日记中的依据"}]}`,
		keys: []string{"currentLevel", "journeyDescription", "shifts"},
	},
	models.AnalysisMindfulness: {
		subtitle: "基于正念觉察理论",
		task: `从正念觉察的角度给出近期值得留意的提醒。返回 JSON:
{"reminders": [{"title": "提醒标题", "detail": "具体说明", "practice": "可以尝试的练习"}], "blessing": "一句祝福"}`,
		keys: []string{"reminders", "blessing"},
	},
	models.AnalysisInnerConflict: {
		subtitle: "基于荣格心理学",
		task: `依据荣格心理学梳理用户的内在矛盾。返回 JSON:
{"intro": "开场", "conflicts": [{"title": "矛盾名称", "sideA": "一面", "sideB": "另一面", "integration": "整合的方向"}], "wisdom": "总结的智慧"}`,
		keys: []string{"intro", "conflicts", "wisdom"},
	},
}

// ParseAnalysisType validates an analysis type name.
func ParseAnalysisType(s string) (models.AnalysisType, error) {
	t := models.AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := analysisKinds[t]; !ok {
		return "", invalid("unknown analysis type %q", s)
	}
	return t, nil
}

// AnalysisSubtitle names the framework an analysis type is based on.
func AnalysisSubtitle(t models.AnalysisType) string {
	return analysisKinds[t].subtitle
}

type AnalysisService interface {
	Analyze(ctx context.Context, userID uint, analysisType string) (*models.AnalysisResult, error)
}

type analysisService struct {
	invoker sage.Invoker
	entries repositories.JournalEntryRepository
	now     func() time.Time
}

func NewAnalysisService(invoker sage.Invoker, entries repositories.JournalEntryRepository) AnalysisService {
	return &analysisService{invoker: invoker, entries: entries, now: time.Now}
}

func (s *analysisService) Analyze(ctx context.Context, userID uint, analysisType string) (*models.AnalysisResult, error) {
	t, err := ParseAnalysisType(analysisType)
	if err != nil {
		return nil, err
	}
	kind := analysisKinds[t]

	entries, err := s.entries.ListPublished(ctx, userID, analysisEntryLimit, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	res, err := s.invoker.Invoke(ctx, fallback.Request{
		Messages: []client.Message{
			client.SystemMessage(analysisSystem + "\n\n" + kind.task),
			client.UserMessage(formatEntries(entries)),
		},
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if res.Response == nil {
		return nil, fmt.Errorf("%w: empty reply from %s", ErrAnalysisFailed, res.Model)
	}

	var data map[string]any
	if err := decodeJSONReply(res.Response.Content, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	for _, k := range kind.keys {
		if _, ok := data[k]; !ok {
			return nil, fmt.Errorf("%w: %s reply is missing %q", ErrAnalysisFailed, t, k)
		}
	}

	return &models.AnalysisResult{
		Type:        t,
		Data:        data,
		Model:       res.Model,
		EntryCount:  len(entries),
		GeneratedAt: s.now(),
	}, nil
}

// formatEntries renders entries oldest first so the model reads them in order.
func formatEntries(entries []models.JournalEntry) string {
	var b strings.Builder
	b.WriteString("我的日记：\n")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(&b, "\n[%s] %s\n", e.CreatedAt.Format("2006-01-02"), e.Content)
	}
	return b.String()
}
