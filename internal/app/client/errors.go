package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RequestError means the backend answered with a failure status.
type RequestError struct {
	Status  int
	Message string
	Body    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("track api: status %d: %s", e.Status, e.Message)
}

// NetworkError means no response was received from the backend.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("track api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// newRequestError pulls a human-readable message out of an error body.
// The backend uses {"message": ...}; some proxies answer {"error": ...}.
func newRequestError(status int, body []byte) *RequestError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = strings.TrimSpace(payload.Error)
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status code %d", status)
	}

	return &RequestError{
		Status:  status,
		Message: msg,
		Body:    string(body),
	}
}
