package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"awaken/internal/llm/client"
	"awaken/internal/services"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondStatus(w http.ResponseWriter, status int, message string, retryable bool) {
	respondJSON(w, status, ErrorResponse{
		Error:     errorCode(status),
		Status:    status,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	})
}

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, retryable := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		loggerFrom(r.Context()).WithError(err).Error("request failed")
		message = "internal error"
	} else if status >= 500 {
		loggerFrom(r.Context()).WithError(err).Warn("upstream failure")
	}
	respondStatus(w, status, message, retryable)
}

func classify(err error) (status int, retryable bool) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, false
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrModelNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, services.ErrNoEntries):
		return http.StatusUnprocessableEntity, false
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, true
	case errors.Is(err, context.Canceled):
		return 499, true
	case errors.Is(err, services.ErrAnalysisFailed), errors.As(err, &apiErr):
		return http.StatusBadGateway, true
	case client.StatusCode(err) != 0:
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, false
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusGatewayTimeout:
		return "upstream_timeout"
	case 499:
		return "client_closed"
	default:
		return "internal_error"
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidBody(err)
	}
	return nil
}

type bodyError struct{ err error }

func (e bodyError) Error() string { return "invalid request body: " + e.err.Error() }
func (e bodyError) Unwrap() []error { return []error{services.ErrInvalidInput, e.err} }

func invalidBody(err error) error { return bodyError{err: err} }

type loggerKey struct{}

func withLogger(ctx context.Context, l *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func loggerFrom(ctx context.Context) *logrus.Entry {
	if l, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return l
	}
	return logrus.WithField("component", "api")
}
