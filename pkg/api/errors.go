package api

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrAuth is returned for bad credentials and expired or invalid tokens.
	ErrAuth = errors.New("authentication failed")
	// ErrNotFound is returned when the task id does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrNetwork covers transport failures, unexpected statuses and unparseable responses.
	ErrNetwork = errors.New("network error")
	// ErrValidation is raised client-side before any request is made.
	ErrValidation = errors.New("invalid input")
)

// classify maps a non-2xx response onto the error taxonomy. It returns nil for 2xx.
func classify(res *http.Response) error {
	err := googleapi.CheckResponse(res)
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuth, gerr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, gerr)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, gerr)
	}
}

// statusCode returns the HTTP status behind err, or 0 when the request never
// produced a response.
func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// Message renders err as a short line suitable for showing to a user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "Invalid credentials or expired session"
	case errors.Is(err, ErrNotFound):
		return "The task no longer exists"
	case errors.Is(err, ErrValidation):
		return "Check the input: " + err.Error()
	case errors.Is(err, ErrNetwork):
		return "Could not reach the server"
	default:
		return err.Error()
	}
}
