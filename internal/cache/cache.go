package cache

import (
	"context"
	"time"
)

const keyPrefix = "awaken:"

// Cache is a small byte store with a fixed entry TTL.
type Cache interface {
	// Get reports whether key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects Redis when Addr is set and the in-process cache otherwise.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// Size bounds the in-process cache.
	Size int
}

const (
	DefaultTTL  = 30 * time.Minute
	DefaultSize = 1024
)

// New returns a Redis-backed cache when cfg.Addr is set, otherwise a memory cache.
func New(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Addr != "" {
		return NewRedis(ctx, cfg)
	}
	return NewMemory(cfg.Size, cfg.TTL), nil
}
