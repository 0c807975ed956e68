package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"awaken/internal/events"
	"awaken/internal/models"
	"awaken/internal/services"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

type userKey struct{}

// UserFromContext returns the authenticated user, or nil outside the API group.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}

// requestContext assigns a request id, echoes it back and attaches a request
// scoped logger.
func requestContext(base *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := events.WithRequestID(r.Context(), id)
			ctx = withLogger(ctx, base.WithField("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		entry := loggerFrom(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		})
		if ww.Status() >= 500 {
			entry.Warn("request served")
			return
		}
		entry.Debug("request served")
	})
}

// identity trusts the headers set by the upstream auth provider and makes
// sure a local user row exists.
func identity(users services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			external := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if external == "" {
				respondStatus(w, http.StatusUnauthorized, "missing "+HeaderUserID+" header", false)
				return
			}
			u, err := users.EnsureUser(r.Context(), services.Identity{
				ExternalID: external,
				Email:      r.Header.Get(HeaderUserEmail),
				Name:       r.Header.Get(HeaderUserName),
			})
			if err != nil {
				respondError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userKey{}, u)
			ctx = withLogger(ctx, loggerFrom(ctx).WithField("user_id", u.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userRateLimiter throttles model-backed endpoints per user. Idle limiters
// expire so the table stays bounded.
type userRateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[uint, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newUserRateLimiter(perSecond float64, burst int) *userRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &userRateLimiter{
		limiters: expirable.NewLRU[uint, *rate.Limiter](4096, nil, 10*time.Minute),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *userRateLimiter) limiter(userID uint) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters.Get(userID); ok {
		return lim
	}
	lim := rate.NewLimiter(l.rate, l.burst)
	l.limiters.Add(userID, lim)
	return lim
}

func (l *userRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			next.ServeHTTP(w, r)
			return
		}
		if !l.limiter(u.ID).Allow() {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfterSeconds(l.rate)))
			respondStatus(w, http.StatusTooManyRequests, "too many requests", true)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(r rate.Limit) float64 {
	if r <= 0 {
		return 1
	}
	s := 1 / float64(r)
	if s < 1 {
		return 1
	}
	return s
}
