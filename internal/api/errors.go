package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is reports whether the error is an authorization failure.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Message extracts a user-facing message from err, falling back to def when
// the error carries nothing better than a status line.
func Message(err error, def string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return def
}

const maxMessageLen = 200

// errorMessage pulls a message out of an error body. The backend answers
// with a JSON object on validation failures and a bare string elsewhere.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
	}
	if strings.HasPrefix(trimmed, "<") {
		return ""
	}
	if len(trimmed) > maxMessageLen {
		trimmed = trimmed[:maxMessageLen]
	}
	return trimmed
}
