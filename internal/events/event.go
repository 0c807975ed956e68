package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	LLMFallback  = "events:llm:fallback"
	LLMExhausted = "events:llm:exhausted"
	SagePersona  = "events:sage:persona"
	SageSummary  = "events:sage:summary"
	TopicsFailed = "events:topics:failed"
)

// Event is a notable step in serving a request.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"requestId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type contextKey string

const requestContextKey contextKey = "awaken/events/request"

// WithRequestID returns a derived context carrying the request id so emitted
// events can be correlated with the HTTP request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if strings.TrimSpace(requestID) == "" {
		return ctx
	}
	return context.WithValue(ctx, requestContextKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestContextKey).(string); ok {
		return v
	}
	return ""
}

func New(eventType EventType, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func NewInfo(message string) Event    { return New(EventInfo, message) }
func NewWarn(message string) Event    { return New(EventWarn, message) }
func NewError(message string) Event   { return New(EventError, message) }
func NewSuccess(message string) Event { return New(EventSuccess, message) }

// With returns a copy of e with key set in its metadata.
func (e Event) With(key, value string) Event {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	e.Metadata = md
	return e
}
