// ABOUTME: Error values for the GitHub Gist client
// ABOUTME: Sentinels for transport and decode failures, plus APIError for non-2xx answers

package gist

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the Gist client.
var (
	// ErrNetworkError indicates the request never produced an HTTP response.
	ErrNetworkError = errors.New("network error connecting to GitHub")

	// ErrInvalidResponse indicates a success response whose body could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from GitHub")
)

// APIError is a non-2xx response from the Gist API. Body holds the raw
// response text so callers can surface it verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound returns true if the error is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the API rejected the token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsRateLimited returns true if the error indicates rate limiting.
// GitHub reports primary rate limits as 403 and secondary ones as 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusForbidden
}
