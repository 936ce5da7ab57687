package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTimeout is returned when a call exceeds the configured timeout
	ErrTimeout = errors.New("la solicitud tardó demasiado tiempo")
	// ErrTransport is returned when the backend could not be reached
	ErrTransport = errors.New("no se pudo conectar con el servidor")
)

// Error represents a backend error response.
type Error struct {
	// StatusCode is the HTTP status code.
	StatusCode int `json:"status"`
	// Code is the short error name, e.g. "Unauthorized".
	Code string `json:"error"`
	// Message is the human-readable message from the backend, if any.
	Message string `json:"message"`
	// Path is the request path reported by the backend.
	Path string `json:"path,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func (e *Error) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the backend rejected the credential.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsValidationError returns true if the backend rejected the payload.
func (e *Error) IsValidationError() bool {
	return e.StatusCode == http.StatusBadRequest
}

// parseError parses an error response from the backend.
func parseError(statusCode int, body []byte) error {
	var payload struct {
		Status  int    `json:"status"`
		Error   string `json:"error"`
		Message string `json:"message"`
		Path    string `json:"path"`
	}

	if err := json.Unmarshal(body, &payload); err == nil && (payload.Message != "" || payload.Error != "") {
		return &Error{
			StatusCode: statusCode,
			Code:       payload.Error,
			Message:    payload.Message,
			Path:       payload.Path,
		}
	}

	// Fallback to generic error
	msg := strings.TrimSpace(string(body))
	if msg == "" || strings.HasPrefix(msg, "<") {
		msg = http.StatusText(statusCode)
	}
	return &Error{
		StatusCode: statusCode,
		Code:       http.StatusText(statusCode),
		Message:    msg,
	}
}

// AsError checks if an error is a backend error and returns it.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
