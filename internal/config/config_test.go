package config

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awaken/internal/llm/client"
	"awaken/internal/sage"
)

type envMap map[string]string

func (e envMap) get(name string) string { return e[name] }

type keySourceMock struct {
	key string
	err error
}

func (k keySourceMock) GetApiKey(string) (string, error) { return k.key, k.err }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envMap{"OPENROUTER_API_KEY": "sk-1"}.get, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "sk-1", cfg.APIKey)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.FallbackDelay)
	assert.Equal(t, time.Second, cfg.PersonaPace)
	assert.Equal(t, sage.ModeParallel, cfg.Fanout)
	assert.Equal(t, sage.PolicyPlaceholder, cfg.Policy)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Cache.Addr)
	assert.Empty(t, cfg.FallbackModels)
	assert.Zero(t, cfg.RateLimit)
	assert.Zero(t, cfg.UserRate)
	assert.Equal(t, DefaultUserBurst, cfg.UserBurst)
	assert.Equal(t, 2*time.Minute, cfg.ModelTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	env := envMap{
		"OPENROUTER_API_KEY":         "sk-1",
		"OPENROUTER_API_URL":         "http://gateway.local/v1/",
		"OPENROUTER_MODEL":           "x-ai/grok-4.1-fast",
		"OPENROUTER_FALLBACK_MODELS": " a, ,b ",
		"AWAKEN_FALLBACK_DELAY":      "1500ms",
		"AWAKEN_PERSONA_PACE":        "250ms",
		"AWAKEN_FANOUT":              "Sequential",
		"AWAKEN_FAILURE_POLICY":      "omit",
		"AWAKEN_LLM_RATE_LIMIT":      "2.5",
		"AWAKEN_HTTP_ADDR":           "127.0.0.1:9000",
		"AWAKEN_LOG_LEVEL":           "debug",
		"AWAKEN_LOG_FORMAT":          "JSON",
		"REDIS_ADDR":                 "localhost:6379",
		"REDIS_DB":                   "3",
		"AWAKEN_TOPIC_CACHE_TTL":     "5m",
		"AWAKEN_USER_RATE_LIMIT":     "0.5",
		"AWAKEN_USER_BURST":          "2",
		"AWAKEN_MODEL_TIMEOUT":       "45s",
	}
	cfg, err := Load(env.get, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://gateway.local/v1", cfg.BaseURL)
	assert.Equal(t, "x-ai/grok-4.1-fast", cfg.PreferredModel)
	assert.Equal(t, []string{"a", "b"}, cfg.FallbackModels)
	assert.Equal(t, 1500*time.Millisecond, cfg.FallbackDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.PersonaPace)
	assert.Equal(t, sage.ModeSequential, cfg.Fanout)
	assert.Equal(t, sage.PolicyOmit, cfg.Policy)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, 3, cfg.Cache.DB)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 0.5, cfg.UserRate)
	assert.Equal(t, 2, cfg.UserBurst)
	assert.Equal(t, 45*time.Second, cfg.ModelTimeout)
}

func TestLoad_MissingKey(t *testing.T) {
	_, err := Load(envMap{}.get, nil, nil)
	assert.ErrorIs(t, err, client.ErrMissingAPIKey)

	_, err = Load(envMap{}.get, keySourceMock{err: errors.New("not found")}, nil)
	assert.ErrorIs(t, err, client.ErrMissingAPIKey)
}

func TestLoad_KeyringFallback(t *testing.T) {
	cfg, err := Load(envMap{}.get, keySourceMock{key: " sk-keyring "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-keyring", cfg.APIKey)

	cfg, err = Load(envMap{"OPENROUTER_API_KEY": "sk-env"}.get, keySourceMock{key: "sk-keyring"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.APIKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"AWAKEN_FALLBACK_DELAY":  "soon",
		"AWAKEN_PERSONA_PACE":    "-1s",
		"AWAKEN_FANOUT":          "burst",
		"AWAKEN_FAILURE_POLICY":  "retry",
		"AWAKEN_LLM_RATE_LIMIT":  "-3",
		"AWAKEN_LOG_LEVEL":       "loud",
		"AWAKEN_LOG_FORMAT":      "xml",
		"REDIS_DB":               "zero",
		"AWAKEN_USER_RATE_LIMIT": "fast",
		"AWAKEN_USER_BURST":      "0",
		"AWAKEN_MODEL_TIMEOUT":   "forever",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(envMap{"OPENROUTER_API_KEY": "sk", name: value}.get, nil, nil)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	l := logrus.New()
	cfg := &Config{LogLevel: logrus.WarnLevel, LogFormat: "json"}
	cfg.ConfigureLogger(l)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}
