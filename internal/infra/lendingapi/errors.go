package lendingapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the lending API.
// Message is the server's {error} field and may be empty.
type APIError struct {
	Status   int
	Message  string
	Endpoint string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lending api %s: %d %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("lending api %s: %d %s", e.Endpoint, e.Status, http.StatusText(e.Status))
}

// Retryable reports whether the upstream itself failed.
func (e *APIError) Retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// ServerMessage returns the {error} text carried by err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseError(endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Endpoint: endpoint}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = strings.TrimSpace(eb.Error)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(eb.Message)
		}
	}
	return apiErr
}

// countable decides which failures trip the read breaker.
func countable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
