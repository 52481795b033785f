// Package graph provides a minimal HTTP client for the Microsoft Graph API:
// client-credentials token acquisition, site lookup, drive search and item
// content download, with error classification by HTTP status.
package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, graph.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("graph: bad request")
	ErrUnauthorized = errors.New("graph: unauthorized")
	ErrForbidden    = errors.New("graph: forbidden")
	ErrNotFound     = errors.New("graph: not found")
	ErrThrottled    = errors.New("graph: throttled")
	ErrServerError  = errors.New("graph: server error")
)

// GraphError is returned for every non-2xx Graph response. It carries the
// HTTP status, the request-id header Graph attaches for support cases, and
// the raw response body text.
type GraphError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is(); nil for unclassified codes
}

func (e *GraphError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("graph: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("graph: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// TokenError is returned when the token endpoint rejects a client-credentials
// request. StatusCode is 0 when no HTTP response was received at all.
type TokenError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("graph: token request failed: %v", e.Err)
	}

	return fmt.Sprintf("graph: token request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the upstream HTTP status from err, or 0 if err does not
// carry one.
func StatusCode(err error) int {
	var graphErr *GraphError
	if errors.As(err, &graphErr) {
		return graphErr.StatusCode
	}

	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.StatusCode
	}

	return 0
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes without a dedicated sentinel.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
