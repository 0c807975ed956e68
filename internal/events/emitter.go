package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Emitter receives every event published through Emit.
type Emitter func(ctx context.Context, name string, evt Event)

var (
	mu      sync.RWMutex
	current Emitter = LogEmitter(logrus.StandardLogger())
)

// Emit publishes evt under name, filling the request id from ctx when unset.
func Emit(ctx context.Context, name string, evt Event) {
	if evt.RequestID == "" {
		evt.RequestID = RequestIDFromContext(ctx)
	}
	mu.RLock()
	f := current
	mu.RUnlock()
	f(ctx, name, evt)
}

// SetEmitter replaces the active emitter and returns a func restoring the
// previous one. A nil f discards events.
func SetEmitter(f Emitter) (restore func()) {
	if f == nil {
		f = func(context.Context, string, Event) {}
	}
	mu.Lock()
	prev := current
	current = f
	mu.Unlock()
	return func() {
		mu.Lock()
		current = prev
		mu.Unlock()
	}
}

// LogEmitter writes events to l at a level matching the event type.
func LogEmitter(l *logrus.Logger) Emitter {
	return func(ctx context.Context, name string, evt Event) {
		entry := l.WithFields(logrus.Fields{
			"event":    name,
			"event_id": evt.ID,
		})
		if evt.RequestID != "" {
			entry = entry.WithField("request_id", evt.RequestID)
		}
		for k, v := range evt.Metadata {
			entry = entry.WithField(k, v)
		}

		switch evt.Type {
		case EventError:
			entry.Error(evt.Message)
		case EventWarn:
			entry.Warn(evt.Message)
		default:
			entry.Info(evt.Message)
		}
	}
}
