package news

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoResults is returned when a search yields nothing. Callers treat it
	// the same as an empty slice.
	ErrNoResults = errors.New("no articles found")

	// ErrInvalidPhone is returned before any network call when a phone
	// number does not validate.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrNotConfigured is returned when the backend base URL is missing.
	ErrNotConfigured = errors.New("news API is not configured")
)

// APIError reports a non-success response from the backend.
type APIError struct {
	Op     string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to %s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// IsNoResults reports whether err means "nothing to show".
func IsNoResults(err error) bool {
	if errors.Is(err, ErrNoResults) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
