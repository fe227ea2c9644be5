package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnauthenticated means the request needs a session and none could be
	// established: no stored token, a failed refresh, or a repeated 401.
	ErrUnauthenticated = errors.New("not authenticated. Please run 'techshop login' first")

	// ErrForbidden means the backend rejected the session with 403; the stored token was cleared.
	ErrForbidden = errors.New("access denied, session cleared")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s failed (status %d)", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed (status %d): %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsClientError reports a 4xx response
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports a 5xx response
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsBadRequest reports whether err is a 400 from the backend
func IsBadRequest(err error) bool {
	return StatusCode(err) == http.StatusBadRequest
}

// IsServerError reports whether err is a 5xx from the backend
func IsServerError(err error) bool {
	return StatusCode(err) >= 500
}

// errorMessage extracts a human readable message from an error response body.
// The backend answers with {"error": ...}, {"message": ...} or plain text.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	const maxLen = 512
	if len(trimmed) > maxLen {
		// Cut on a rune boundary
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
			cut--
		}
		trimmed = trimmed[:cut] + "..."
	}
	return trimmed
}
