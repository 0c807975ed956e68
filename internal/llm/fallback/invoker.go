package fallback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"awaken/internal/events"
	"awaken/internal/llm/client"
	"awaken/internal/metrics"
)

// DefaultDelay is the fixed pause before moving on to the next model.
const DefaultDelay = 2 * time.Second

var (
	ErrNoModels        = errors.New("model priority list is empty")
	ErrStartOutOfRange = errors.New("start index is outside the priority list")
)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Config struct {
	// Models is the priority list; the first entry is the preferred model.
	Models []string
	Delay  time.Duration
	Sleep  SleepFunc
	Logger *logrus.Entry
}

type Request struct {
	Messages    []client.Message
	Temperature float32
	MaxTokens   int
	JSONMode    bool
	// StartIndex selects the first model to try.
	StartIndex int
}

// Attempt records one model call made while serving a request.
type Attempt struct {
	Index      int           `json:"index"`
	Model      string        `json:"model"`
	StatusCode int           `json:"statusCode,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

type Result struct {
	Response *client.Response
	// Model is the model that produced Response.
	Model    string
	Attempts []Attempt
}

// Invoker walks a fixed model priority list, falling forward on rate limits.
type Invoker struct {
	completer client.Completer
	models    []string
	delay     time.Duration
	sleep     SleepFunc
	log       *logrus.Entry
}

func New(completer client.Completer, cfg Config) (*Invoker, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	models := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	inv := &Invoker{
		completer: completer,
		models:    models,
		delay:     cfg.Delay,
		sleep:     cfg.Sleep,
		log:       cfg.Logger,
	}
	if inv.delay <= 0 {
		inv.delay = DefaultDelay
	}
	if inv.sleep == nil {
		inv.sleep = Sleep
	}
	if inv.log == nil {
		inv.log = logrus.WithField("component", "fallback")
	}
	return inv, nil
}

// Models returns a copy of the priority list.
func (i *Invoker) Models() []string {
	out := make([]string, len(i.models))
	copy(out, i.models)
	return out
}

func (i *Invoker) Delay() time.Duration {
	return i.delay
}

// Invoke tries each model from req.StartIndex in order. A 429 on any model but
// the last sleeps and moves to the next one. Any other error, or a 429 on the
// last model, is returned as produced by the completer.
func (i *Invoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	if req.StartIndex < 0 || req.StartIndex >= len(i.models) {
		return nil, fmt.Errorf("%w: %d of %d", ErrStartOutOfRange, req.StartIndex, len(i.models))
	}

	attempts := make([]Attempt, 0, len(i.models)-req.StartIndex)
	last := len(i.models) - 1

	for idx := req.StartIndex; idx <= last; idx++ {
		model := i.models[idx]
		log := i.log.WithFields(logrus.Fields{
			"model":    model,
			"priority": fmt.Sprintf("%d/%d", idx+1, len(i.models)),
		})
		log.Debug("attempting chat completion")

		started := time.Now()
		resp, err := i.completer.Complete(ctx, client.Request{
			Model:       model,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			JSONMode:    req.JSONMode,
		})
		elapsed := time.Since(started)

		if err == nil {
			metrics.RecordAttempt(model, "ok", elapsed)
			attempts = append(attempts, Attempt{Index: idx, Model: model, Duration: elapsed})
			log.WithField("elapsed", elapsed).Debug("chat completion succeeded")
			return &Result{Response: resp, Model: model, Attempts: attempts}, nil
		}

		status := client.StatusCode(err)
		attempts = append(attempts, Attempt{
			Index:      idx,
			Model:      model,
			StatusCode: status,
			Error:      err.Error(),
			Duration:   elapsed,
		})

		if status != http.StatusTooManyRequests {
			metrics.RecordAttempt(model, "error", elapsed)
			log.WithError(err).WithField("status", status).Warn("chat completion failed")
			return nil, err
		}
		metrics.RecordAttempt(model, "rate_limited", elapsed)
		if idx == last {
			events.Emit(ctx, events.LLMExhausted, events.NewError("rate limited on last model in priority list").
				With("model", model).
				With("attempts", strconv.Itoa(len(attempts))))
			return nil, err
		}

		next := i.models[idx+1]
		events.Emit(ctx, events.LLMFallback, events.NewWarn("rate limited, falling back to next model").
			With("from", model).
			With("to", next).
			With("delay", i.delay.String()))
		metrics.RecordFallback(model, next)
		if serr := i.sleep(ctx, i.delay); serr != nil {
			return nil, fmt.Errorf("waiting to fall back to %s: %w", next, serr)
		}
	}

	// Unreachable: the loop returns on the last index.
	return nil, ErrNoModels
}
