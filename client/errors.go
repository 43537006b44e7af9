package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
)

var (
	// ErrNotLoggedIn is returned before any network call when no access token is stored.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidCredentials is returned when the server rejects a username and password pair.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionExpired is returned once stored credentials were rejected for good and removed.
	ErrSessionExpired = errors.New("session expired")
)

// APIError describes a non-2xx response that is not an authentication failure.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, e.Detail)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func newAPIError(method, endpoint string, status int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: status,
		Detail:     errorDetail(body),
	}
}

// errorDetail pulls a human readable message out of an error body. Both problem
// details and the {"detail": ...} shape are understood.
func errorDetail(body []byte) string {
	for _, key := range []string{"detail", "title", "message", "error"} {
		if value, err := jsonparser.GetString(body, key); err == nil && value != "" {
			return value
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
