package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	// DefaultBaseURL is the Graph v1.0 API root.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	userAgent = "schedule-proxy/1.0"
)

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer
// so tests can hand the client a fixed token.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that always returns the same bearer token.
// The schedule pipeline wraps each freshly acquired token in one so a
// Client never outlives the request that authenticated it.
type StaticToken string

// Token returns the wrapped token.
func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

// Client is an HTTP client for the Microsoft Graph API.
// It handles request construction, authentication and error
// classification. Requests are issued exactly once; there is no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
}

// NewClient creates a Graph API client.
// baseURL is typically DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
	}
}

// Do executes a single HTTP request against the Graph API.
// The path is appended to the client's base URL. Non-2xx responses are
// drained, closed and returned as *GraphError.
// The caller is responsible for closing the response body on success.
func (c *Client) Do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("graph: creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("graph: obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("graph: request canceled: %w", ctx.Err())
		}

		return nil, fmt.Errorf("graph: %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	graphErr := &GraphError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
		Message:    string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}

	c.logger.Warn("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", graphErr.RequestID),
	)

	return nil, graphErr
}
