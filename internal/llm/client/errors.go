package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// APIError is a non-2xx reply from the gateway.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Type != "" && e.Code != "" {
		return fmt.Sprintf("HTTP %d: %s (type: %s, code: %s)", e.StatusCode, e.Message, e.Type, e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRateLimitError reports whether the gateway answered 429.
func (e *APIError) IsRateLimitError() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		raw := string(body)
		if len(raw) > 500 {
			raw = raw[:500] + "..."
		}
		apiErr.Message = fmt.Sprintf("%s (raw: %s)", resp.Status, raw)
		return apiErr
	}
	if parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
	}
	apiErr.Type = parsed.Error.Type
	// OpenRouter sends numeric codes, OpenAI-style backends send strings.
	switch code := parsed.Error.Code.(type) {
	case string:
		apiErr.Code = code
	case float64:
		apiErr.Code = strconv.Itoa(int(code))
	}
	return apiErr
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, header); err == nil {
		return time.Until(t)
	}
	return 0
}

var statusPattern = regexp.MustCompile(`(?:HTTP|status code:)\s*(\d{3})`)

// StatusCode extracts the HTTP status carried by err, or 0 when there is none.
// Errors that lost their type on the way through an SDK are matched on text.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if m := statusPattern.FindStringSubmatch(err.Error()); len(m) == 2 {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code
		}
	}
	return 0
}

// IsRateLimited reports whether err is the gateway's rate-limit signal.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}
