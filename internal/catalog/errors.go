package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by networked operations when no
	// credentials are available.
	ErrNotConfigured = errors.New("catalog API not configured")

	// ErrMalformedResponse marks a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed catalog response")
)

// RequestError is a network-class failure for one URL. StatusCode is zero
// when no response was received. URL has the API key redacted.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode >= 400 {
		return fmt.Sprintf("request %s: HTTP error: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
