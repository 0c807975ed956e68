package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"

	"awaken/internal/api"
	"awaken/internal/cache"
	"awaken/internal/config"
	"awaken/internal/database"
	"awaken/internal/events"
	"awaken/internal/llm/client"
	"awaken/internal/llm/fallback"
	"awaken/internal/sage"
	"awaken/internal/services"
)

const shutdownGrace = 15 * time.Second

// App owns the long-lived resources of the running service.
type App struct {
	cfg    *config.Config
	log    *logrus.Entry
	server *http.Server

	cache   cache.Cache
	dbClose func() error
}

// NewApp wires storage, the model chain and the HTTP router from cfg.
func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*App, error) {
	a := &App{cfg: cfg, log: log}

	db, err := database.Init(database.Config{
		Path:     cfg.DBPath,
		LogLevel: gormLevel(cfg.LogLevel),
		Logger:   log.WithField("component", "database"),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.dbClose = sqlDB.Close
	}

	roster, err := sage.LoadRoster()
	if err != nil {
		a.Close()
		return nil, err
	}

	dbs := services.NewDbServices(db, roster)
	if err := dbs.Models.Startup(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed model catalogue: %w", err)
	}
	chain := dbs.Models.PriorityList(cfg.PreferredModel, cfg.FallbackModels)

	completer, err := client.NewOpenRouterClient(ctx, client.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create gateway client: %w", err)
	}
	invoker, err := fallback.New(completer, fallback.Config{
		Models: chain,
		Delay:  cfg.FallbackDelay,
		Logger: log.WithField("component", "fallback"),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build model chain: %w", err)
	}
	agg := sage.NewAggregator(invoker, roster, sage.Options{
		Mode:   cfg.Fanout,
		Policy: cfg.Policy,
		Pace:   cfg.PersonaPace,
		Logger: log.WithField("component", "sage"),
	})

	a.cache, err = cache.New(ctx, cfg.Cache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open topic cache: %w", err)
	}

	router := api.NewRouter(api.Config{
		Services:     services.NewServices(dbs, agg, invoker, a.cache),
		Roster:       roster,
		Chain:        chain,
		Logger:       log.WithField("component", "api"),
		UserRate:     cfg.UserRate,
		UserBurst:    cfg.UserBurst,
		ModelTimeout: cfg.ModelTimeout,
	})
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"models": chain,
		"fanout": cfg.Fanout,
		"policy": cfg.Policy,
		"cache":  cacheKind(cfg.Cache),
		"dev":    database.IsDevelopment(),
	}).Info("service wired")
	return a, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.server.Addr).Info("listening")
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Warn("close cache")
		}
	}
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			a.log.WithError(err).Warn("close database")
		}
	}
}

// installEventLog routes operational events to the logger.
func installEventLog(l *logrus.Logger) {
	events.SetEmitter(events.LogEmitter(l))
}

func gormLevel(l logrus.Level) logger.LogLevel {
	switch {
	case l >= logrus.TraceLevel:
		return logger.Info
	case l >= logrus.InfoLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}

func cacheKind(c cache.Config) string {
	if c.Addr != "" {
		return "redis"
	}
	return "memory"
}
