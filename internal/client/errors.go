package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any APIError with status 401, via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is returned when the API answers with an unexpected status.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Msg        string // the "msg" field, when the body had one
	Body       string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Msg)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Is reports whether target is ErrUnauthorized and the status was 401.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
