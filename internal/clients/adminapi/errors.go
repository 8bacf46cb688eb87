package adminapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrNotFound = errors.New("resource not found")

// APIError is a non-2xx answer. Message is the server's {message}, verbatim, when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("admin api error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("admin api http error (%d)", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newAPIError(status int, payload []byte) *APIError {
	e := &APIError{StatusCode: status}
	var parsed errorResponse
	if json.Unmarshal(payload, &parsed) == nil {
		e.Message = strings.TrimSpace(parsed.Message)
	}
	return e
}

// ErrorMessage picks the server-supplied message for a notification, else fallback.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
