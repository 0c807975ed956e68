package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_FillsRequestIDFromContext(t *testing.T) {
	var got []Event
	restore := SetEmitter(func(ctx context.Context, name string, evt Event) {
		assert.Equal(t, LLMFallback, name)
		got = append(got, evt)
	})
	defer restore()

	ctx := WithRequestID(context.Background(), "req-1")
	Emit(ctx, LLMFallback, NewWarn("falling back").With("from", "A"))

	require.Len(t, got, 1)
	assert.Equal(t, "req-1", got[0].RequestID)
	assert.Equal(t, EventWarn, got[0].Type)
	assert.Equal(t, "A", got[0].Metadata["from"])
	assert.NotEmpty(t, got[0].ID)
}

func TestWithRequestID_IgnoresBlank(t *testing.T) {
	ctx := WithRequestID(context.Background(), "  ")
	assert.Empty(t, RequestIDFromContext(ctx))
}

func TestEventWith_DoesNotShareMetadata(t *testing.T) {
	base := NewInfo("x").With("a", "1")
	derived := base.With("b", "2")
	assert.Len(t, base.Metadata, 1)
	assert.Len(t, derived.Metadata, 2)
}

func TestLogEmitter_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	emit := LogEmitter(l)
	evt := NewError("exhausted").With("model", "B")
	evt.RequestID = "req-9"
	emit(context.Background(), LLMExhausted, evt)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "exhausted", line["msg"])
	assert.Equal(t, LLMExhausted, line["event"])
	assert.Equal(t, "req-9", line["request_id"])
	assert.Equal(t, "B", line["model"])
}

func TestSetEmitter_NilDiscards(t *testing.T) {
	restore := SetEmitter(nil)
	defer restore()
	assert.NotPanics(t, func() { Emit(context.Background(), SagePersona, NewInfo("x")) })
}
