package sage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"awaken/internal/events"
	"awaken/internal/llm/client"
	"awaken/internal/llm/fallback"
	"awaken/internal/metrics"
	"awaken/internal/models"
)

// Invoker is the model-fallback entry point the aggregator calls per persona.
type Invoker interface {
	Invoke(ctx context.Context, req fallback.Request) (*fallback.Result, error)
}

type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// Policy decides what a failed persona contributes to a batch.
type Policy string

const (
	PolicyPlaceholder Policy = "placeholder"
	PolicyOmit        Policy = "omit"
)

const DefaultPace = time.Second

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeParallel, nil
	case ModeParallel, ModeSequential:
		return m, nil
	default:
		return "", fmt.Errorf("unknown fan-out mode %q", s)
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyPlaceholder, nil
	case PolicyPlaceholder, PolicyOmit:
		return p, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

type Options struct {
	Mode   Mode
	Policy Policy
	// Pace is the pause between consecutive persona calls in sequential mode.
	Pace   time.Duration
	Pause  fallback.SleepFunc
	Logger *logrus.Entry
}

type Aggregator struct {
	invoker Invoker
	roster  *Roster
	mode    Mode
	policy  Policy
	pace    time.Duration
	pause   fallback.SleepFunc
	log     *logrus.Entry
}

func NewAggregator(invoker Invoker, roster *Roster, opts Options) *Aggregator {
	a := &Aggregator{
		invoker: invoker,
		roster:  roster,
		mode:    opts.Mode,
		policy:  opts.Policy,
		pace:    opts.Pace,
		pause:   opts.Pause,
		log:     opts.Logger,
	}
	if a.mode == "" {
		a.mode = ModeParallel
	}
	if a.policy == "" {
		a.policy = PolicyPlaceholder
	}
	if a.pace <= 0 {
		a.pace = DefaultPace
	}
	if a.pause == nil {
		a.pause = fallback.Sleep
	}
	if a.log == nil {
		a.log = logrus.WithField("component", "sage")
	}
	return a
}

func (a *Aggregator) Roster() *Roster {
	return a.roster
}

type BatchRequest struct {
	Task     TaskName
	Content  string
	Category Category
	// Personas defaults to the full roster.
	Personas []PersonaKey
}

type outcome struct {
	insight models.PersonaInsight
	err     error
}

// Collect fans req out to every requested persona. Individual persona
// failures never fail the batch; they are handled by the configured policy.
func (a *Aggregator) Collect(ctx context.Context, req BatchRequest) ([]models.PersonaInsight, error) {
	task, err := LookupTask(req.Task)
	if err != nil {
		return nil, err
	}
	if err := validate(task, req.Content, req.Category); err != nil {
		return nil, err
	}
	personas, err := a.roster.Resolve(req.Personas)
	if err != nil {
		return nil, err
	}

	var outcomes []outcome
	switch a.mode {
	case ModeSequential:
		outcomes, err = a.sequential(ctx, task, personas, req)
	default:
		outcomes, err = a.parallel(ctx, task, personas, req)
	}
	if err != nil {
		return nil, err
	}

	insights := make([]models.PersonaInsight, 0, len(outcomes))
	for i, o := range outcomes {
		if o.err == nil {
			insights = append(insights, o.insight)
			continue
		}
		if a.policy == PolicyOmit {
			continue
		}
		insights = append(insights, placeholder(task, personas[i]))
	}
	return insights, nil
}

func (a *Aggregator) parallel(ctx context.Context, task *Task, personas []Persona, req BatchRequest) ([]outcome, error) {
	outcomes := make([]outcome, len(personas))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range personas {
		g.Go(func() error {
			insight, err := a.ask(gctx, task, p, req.Category, req.Content)
			outcomes[i] = outcome{insight: insight, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (a *Aggregator) sequential(ctx context.Context, task *Task, personas []Persona, req BatchRequest) ([]outcome, error) {
	outcomes := make([]outcome, 0, len(personas))
	for i, p := range personas {
		if i > 0 {
			if err := a.pause(ctx, a.pace); err != nil {
				return nil, fmt.Errorf("pausing before %s: %w", p.Key, err)
			}
		}
		insight, err := a.ask(ctx, task, p, req.Category, req.Content)
		outcomes = append(outcomes, outcome{insight: insight, err: err})
	}
	return outcomes, nil
}

// Ask requests a single persona's reply. Unlike Collect, the failure is
// returned so the caller can offer a retry.
func (a *Aggregator) Ask(ctx context.Context, taskName TaskName, key PersonaKey, category Category, content string) (models.PersonaInsight, error) {
	task, err := LookupTask(taskName)
	if err != nil {
		return models.PersonaInsight{}, err
	}
	if err := validate(task, content, category); err != nil {
		return models.PersonaInsight{}, err
	}
	personas, err := a.roster.Resolve([]PersonaKey{key})
	if err != nil {
		return models.PersonaInsight{}, err
	}
	return a.ask(ctx, task, personas[0], category, content)
}

func (a *Aggregator) ask(ctx context.Context, task *Task, p Persona, category Category, content string) (models.PersonaInsight, error) {
	log := a.log.WithFields(logrus.Fields{"task": task.Name, "persona": p.Key})

	system, err := task.SystemPrompt(p, category)
	if err != nil {
		return models.PersonaInsight{}, err
	}
	res, err := a.invoker.Invoke(ctx, fallback.Request{
		Messages: []client.Message{
			client.SystemMessage(system),
			client.UserMessage(task.UserMessage(content)),
		},
		Temperature: task.Temperature,
		MaxTokens:   task.MaxTokens,
	})
	if err != nil {
		metrics.RecordPersonaResult(string(task.Name), string(p.Key), false)
		events.Emit(ctx, events.SagePersona, events.NewWarn("persona request failed").
			With("task", string(task.Name)).
			With("persona", string(p.Key)).
			With("error", err.Error()))
		return models.PersonaInsight{}, fmt.Errorf("%s %s: %w", p.Key, task.Name, err)
	}
	metrics.RecordPersonaResult(string(task.Name), string(p.Key), true)
	log.WithField("model", res.Model).Debug("persona request served")

	text := ""
	if res.Response != nil {
		text = strings.TrimSpace(res.Response.Content)
	}
	if text == "" {
		text = task.DefaultText
	}
	return insightFor(p, text, false), nil
}

// SummaryInput is one sage's contribution passed to Summarize.
type SummaryInput struct {
	Sage    string `json:"sage"`
	Insight string `json:"insight"`
}

const summaryExcerptRunes = 100

// Summarize fuses several sage insights into one short line. A failed call
// yields the canned summary with degraded set.
func (a *Aggregator) Summarize(ctx context.Context, content string, inputs []SummaryInput) (summary string, degraded bool, err error) {
	task := mustTask(TaskSummary)
	if strings.TrimSpace(content) == "" {
		return "", false, ErrEmptyContent
	}

	lines := make([]string, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, fmt.Sprintf("%s:“%s...”", in.Sage, excerpt(in.Insight, summaryExcerptRunes)))
	}
	user := fmt.Sprintf("用户的记录：\n%s\n\n四位智者的寄语：\n%s", content, strings.Join(lines, "\n"))

	res, ierr := a.invoker.Invoke(ctx, fallback.Request{
		Messages: []client.Message{
			client.SystemMessage(a.roster.prompt),
			client.UserMessage(user),
		},
		Temperature: task.Temperature,
		MaxTokens:   task.MaxTokens,
	})
	if ierr != nil {
		metrics.RecordPersonaResult(string(task.Name), "synthesizer", false)
		events.Emit(ctx, events.SageSummary, events.NewWarn("summary request failed, using canned summary").
			With("error", ierr.Error()))
		return task.Placeholder, true, nil
	}
	metrics.RecordPersonaResult(string(task.Name), "synthesizer", true)
	if res.Response == nil || strings.TrimSpace(res.Response.Content) == "" {
		return task.DefaultText, false, nil
	}
	return strings.TrimSpace(res.Response.Content), false, nil
}

func validate(task *Task, content string, category Category) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if task.Contexts == nil {
		return nil
	}
	if _, ok := task.Contexts[category]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return nil
}

func placeholder(task *Task, p Persona) models.PersonaInsight {
	return insightFor(p, task.Placeholder, true)
}

func insightFor(p Persona, text string, degraded bool) models.PersonaInsight {
	return models.PersonaInsight{
		Key:      string(p.Key),
		Sage:     p.DisplayName,
		Emoji:    p.Emoji,
		Style:    p.Style,
		Insight:  text,
		Degraded: degraded,
	}
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
