package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	defaultTimeout = 2 * time.Minute
	// The chat model needs a model at construction; every call overrides it.
	placeholderModel = "openrouter/auto"

	appReferer = "https://awaken-entries.com"
	appTitle   = "Awaken Entries"
)

// ErrMissingAPIKey is returned when a client is built without credentials.
var ErrMissingAPIKey = errors.New("openrouter api key is not configured")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to the gateway.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Request describes one chat completion against a single model.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// JSONMode asks the model to answer with a single JSON object.
	JSONMode bool
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Response is the provider reply for a successful completion.
type Response struct {
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Completer performs a single chat completion with no retries of its own.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Config holds gateway connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RateLimit caps outbound requests per second; zero disables the limiter.
	RateLimit float64
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

type OpenRouterClient struct {
	ChatModel *openai.ChatModel
	BaseURL   string
	limiter   *rate.Limiter
}

func NewOpenRouterClient(ctx context.Context, cfg Config) (*OpenRouterClient, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  key,
		BaseURL: baseURL,
		Model:   placeholderModel,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: &gatewayTransport{base: base},
		},
	})
	if err != nil {
		logrus.WithError(err).Error("creating OpenRouter chat model")
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	c := &OpenRouterClient{ChatModel: chatModel, BaseURL: baseURL}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// Complete sends req to the gateway. Errors are returned as produced by the
// transport so callers can inspect the status with StatusCode.
func (c *OpenRouterClient) Complete(ctx context.Context, req Request) (*Response, error) {
	mdl := strings.TrimSpace(req.Model)
	if mdl == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	opts := []model.Option{model.WithModel(mdl)}
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode && acceptsJSONFormat(mdl) {
		opts = append(opts, openai.WithExtraFields(map[string]any{
			"response_format": map[string]string{"type": "json_object"},
		}))
	}

	out, err := c.ChatModel.Generate(ctx, toSchemaMessages(req), opts...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("model %s returned no message", mdl)
	}

	resp := &Response{Model: mdl, Content: out.Content}
	if meta := out.ResponseMeta; meta != nil {
		resp.FinishReason = meta.FinishReason
		if meta.Usage != nil {
			resp.Usage = Usage{
				PromptTokens:     meta.Usage.PromptTokens,
				CompletionTokens: meta.Usage.CompletionTokens,
				TotalTokens:      meta.Usage.TotalTokens,
			}
		}
	}
	return resp, nil
}

const jsonInstruction = "Respond with a single valid JSON object and nothing else."

// Provider prefixes whose paid routes honour response_format. Free routes are
// served by mixed upstreams, so they get the instruction only.
var jsonFormatProviders = []string{"openai/", "google/", "x-ai/"}

func acceptsJSONFormat(model string) bool {
	if strings.HasSuffix(model, ":free") {
		return false
	}
	for _, p := range jsonFormatProviders {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func toSchemaMessages(req Request) []*schema.Message {
	out := make([]*schema.Message, 0, len(req.Messages)+1)
	if req.JSONMode {
		out = append(out, schema.SystemMessage(jsonInstruction))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

// gatewayTransport tags requests for OpenRouter attribution and turns non-2xx
// replies into *APIError so the status code survives SDK error wrapping.
type gatewayTransport struct {
	base http.RoundTripper
}

func (t *gatewayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Set("HTTP-Referer", appReferer)
	out.Header.Set("X-Title", appTitle)

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, parseAPIError(resp)
	}
	return resp, nil
}
