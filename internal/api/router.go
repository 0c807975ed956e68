package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"awaken/internal/metrics"
	"awaken/internal/sage"
	"awaken/internal/services"
)

type Config struct {
	Services *services.Services
	Roster   *sage.Roster
	// Chain is the model priority list the invoker was built with.
	Chain  []string
	Logger *logrus.Entry
	// UserRate limits model-backed requests per user per second; zero disables it.
	UserRate  float64
	UserBurst int
	// ModelTimeout bounds model-backed requests; zero leaves them unbounded.
	ModelTimeout time.Duration
}

type handler struct {
	svc    *services.Services
	roster *sage.Roster
	chain  []string
}

func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logrus.WithField("component", "api")
	}
	h := &handler{svc: cfg.Services, roster: cfg.Roster, chain: append([]string(nil), cfg.Chain...)}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestContext(log))
	r.Use(metrics.InstrumentHandler)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(identity(cfg.Services.Users))

		r.Get("/sages", h.listSages)
		r.Get("/models", h.listModels)
		r.Put("/models/*", h.setModelEnabled)
		r.Get("/prompts", h.listPrompts)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.listEntries)
			r.Post("/", h.createEntry)
			r.Get("/today/count", h.todayCount)
			r.Get("/{id}", h.getEntry)
			r.Patch("/{id}", h.updateEntry)
			r.Delete("/{id}", h.deleteEntry)
		})

		r.Get("/favorites", h.listFavorites)
		r.Post("/favorites", h.addFavorite)
		r.Delete("/favorites/{id}", h.removeFavorite)

		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.updateSettings)

		// Model-backed endpoints.
		r.Group(func(r chi.Router) {
			if cfg.UserRate > 0 {
				r.Use(newUserRateLimiter(cfg.UserRate, cfg.UserBurst).Handler)
			}
			if cfg.ModelTimeout > 0 {
				r.Use(middleware.Timeout(cfg.ModelTimeout))
			}
			r.Get("/topics", h.topics)
			r.Post("/sage/insight", h.sageInsight)
			r.Post("/sage/insights", h.sageInsights)
			r.Post("/sage/blessings", h.sageBlessings)
			r.Post("/sage/feedback", h.sageFeedback)
			r.Post("/sage/summary", h.sageSummary)
			r.Post("/analysis/{type}", h.analysis)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, http.StatusNotFound, "no route for "+r.URL.Path, false)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"models": len(h.chain),
	})
}
