package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"awaken/internal/cache"
	"awaken/internal/llm/client"
	"awaken/internal/llm/fallback"
	"awaken/internal/sage"
)

const (
	DefaultHTTPAddr  = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultUserBurst    = 5
	DefaultModelTimeout = 2 * time.Minute
)

// KeySource supplies the gateway key when the environment has none.
type KeySource interface {
	GetApiKey(provider string) (string, error)
}

// KeyProvider is the keyring account the gateway key is stored under.
const KeyProvider = "openrouter"

type Config struct {
	APIKey         string
	BaseURL        string
	PreferredModel string
	// FallbackModels replaces the catalogue fallbacks when non-empty.
	FallbackModels []string
	FallbackDelay  time.Duration
	// RateLimit is outbound requests per second; zero disables limiting.
	RateLimit float64

	Fanout      sage.Mode
	Policy      sage.Policy
	PersonaPace time.Duration

	HTTPAddr string
	// UserRate throttles model-backed endpoints per user per second; zero disables it.
	UserRate     float64
	UserBurst    int
	ModelTimeout time.Duration

	DBPath    string
	LogLevel  logrus.Level
	LogFormat string

	Cache cache.Config
}

// Load reads configuration through getenv. keys may be nil.
func Load(getenv func(string) string, keys KeySource, log *logrus.Entry) (*Config, error) {
	if log == nil {
		log = logrus.WithField("component", "config")
	}
	get := func(name string) string { return strings.TrimSpace(getenv(name)) }

	cfg := &Config{
		BaseURL:        client.DefaultBaseURL,
		FallbackDelay:  fallback.DefaultDelay,
		PersonaPace:    sage.DefaultPace,
		HTTPAddr:       DefaultHTTPAddr,
		UserBurst:      DefaultUserBurst,
		ModelTimeout:   DefaultModelTimeout,
		LogLevel:       logrus.InfoLevel,
		LogFormat:      DefaultLogFormat,
		PreferredModel: get("OPENROUTER_MODEL"),
		DBPath:         get("AWAKEN_DB_PATH"),
		Cache: cache.Config{
			Addr:     get("REDIS_ADDR"),
			Password: get("REDIS_PASSWORD"),
			TTL:      cache.DefaultTTL,
		},
	}

	if v := get("OPENROUTER_API_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	cfg.FallbackModels = splitCSV(get("OPENROUTER_FALLBACK_MODELS"))

	var err error
	if cfg.FallbackDelay, err = duration(get, "AWAKEN_FALLBACK_DELAY", cfg.FallbackDelay); err != nil {
		return nil, err
	}
	if cfg.PersonaPace, err = duration(get, "AWAKEN_PERSONA_PACE", cfg.PersonaPace); err != nil {
		return nil, err
	}
	if cfg.Cache.TTL, err = duration(get, "AWAKEN_TOPIC_CACHE_TTL", cfg.Cache.TTL); err != nil {
		return nil, err
	}
	if v := get("AWAKEN_LLM_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("AWAKEN_LLM_RATE_LIMIT: invalid rate %q", v)
		}
		cfg.RateLimit = rps
	}
	if v := get("AWAKEN_USER_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("AWAKEN_USER_RATE_LIMIT: invalid rate %q", v)
		}
		cfg.UserRate = rps
	}
	if v := get("AWAKEN_USER_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("AWAKEN_USER_BURST: invalid burst %q", v)
		}
		cfg.UserBurst = n
	}
	if cfg.ModelTimeout, err = duration(get, "AWAKEN_MODEL_TIMEOUT", cfg.ModelTimeout); err != nil {
		return nil, err
	}
	if v := get("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Cache.DB = db
	}
	if cfg.Fanout, err = sage.ParseMode(get("AWAKEN_FANOUT")); err != nil {
		return nil, fmt.Errorf("AWAKEN_FANOUT: %w", err)
	}
	if cfg.Policy, err = sage.ParsePolicy(get("AWAKEN_FAILURE_POLICY")); err != nil {
		return nil, fmt.Errorf("AWAKEN_FAILURE_POLICY: %w", err)
	}
	if v := get("AWAKEN_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := get("AWAKEN_LOG_LEVEL"); v != "" {
		if cfg.LogLevel, err = logrus.ParseLevel(v); err != nil {
			return nil, fmt.Errorf("AWAKEN_LOG_LEVEL: %w", err)
		}
	}
	if v := strings.ToLower(get("AWAKEN_LOG_FORMAT")); v != "" {
		if v != "text" && v != "json" {
			return nil, fmt.Errorf("AWAKEN_LOG_FORMAT: unknown format %q", v)
		}
		cfg.LogFormat = v
	}

	cfg.APIKey = get("OPENROUTER_API_KEY")
	if cfg.APIKey == "" && keys != nil {
		key, kerr := keys.GetApiKey(KeyProvider)
		if kerr != nil {
			log.WithError(kerr).Debug("no gateway key in keyring")
		}
		cfg.APIKey = strings.TrimSpace(key)
	}
	if cfg.APIKey == "" {
		log.Error("OPENROUTER_API_KEY is not set and no key is stored in the keyring")
		return nil, fmt.Errorf("OPENROUTER_API_KEY: %w", client.ErrMissingAPIKey)
	}
	return cfg, nil
}

// ConfigureLogger applies level and format to the standard logrus logger.
func (c *Config) ConfigureLogger(l *logrus.Logger) {
	l.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func duration(get func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := get(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", name, v)
	}
	return d, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
