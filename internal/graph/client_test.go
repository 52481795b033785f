package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingToken is a test TokenSource that always returns an error.
type failingToken struct{}

func (failingToken) Token() (string, error) {
	return "", errors.New("token error")
}

// newTestClient creates a Client pointing at the given httptest server.
func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	return NewClient(url, http.DefaultClient, StaticToken("test-token"), slog.Default())
}

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodGet, "/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"value":"ok"}`, string(body))
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"throttled", http.StatusTooManyRequests, ErrThrottled},
		{"server error", http.StatusBadGateway, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("request-id", "test-req-id")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"something"}`))
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)
			_, err := client.Do(context.Background(), http.MethodGet, "/test")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var graphErr *GraphError
			require.ErrorAs(t, err, &graphErr)
			assert.Equal(t, tt.status, graphErr.StatusCode)
			assert.Equal(t, "test-req-id", graphErr.RequestID)
			assert.Equal(t, `{"error":"something"}`, graphErr.Message)
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestDo_NoRetry(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Do(context.Background(), http.MethodGet, "/flaky")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_TokenError(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", http.DefaultClient, failingToken{}, nil)

	_, err := client.Do(context.Background(), http.MethodGet, "/me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "obtaining token")
}

func TestDo_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, srv.URL)
	_, err := client.Do(ctx, http.MethodGet, "/me")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGraphError_Format(t *testing.T) {
	withID := &GraphError{StatusCode: 404, RequestID: "abc", Message: "gone"}
	assert.Equal(t, "graph: HTTP 404 (request-id: abc): gone", withID.Error())

	withoutID := &GraphError{StatusCode: 500, Message: "boom"}
	assert.Equal(t, "graph: HTTP 500: boom", withoutID.Error())
}

func TestStatusCode_Unrelated(t *testing.T) {
	assert.Zero(t, StatusCode(errors.New("plain")))
	assert.Equal(t, 401, StatusCode(&TokenError{StatusCode: 401}))
}
