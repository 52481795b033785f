package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredentials() Credentials {
	return Credentials{
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "s3cret",
	}
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t,
		"https://login.microsoftonline.com/tenant-1/oauth2/v2.0/token",
		tokenURL("", "tenant-1"))
	assert.Equal(t,
		"https://login.microsoftonline.com/tenant-1/oauth2/v2.0/token",
		tokenURL(DefaultLoginBaseURL+"/", "tenant-1"))
	assert.Equal(t,
		"http://127.0.0.1:9999/tenant-1/oauth2/v2.0/token",
		tokenURL("http://127.0.0.1:9999", "tenant-1"))
}

func TestAccessToken_ClientCredentialsGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tenant-1/oauth2/v2.0/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "s3cret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://graph.microsoft.com/.default", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-abc","token_type":"Bearer","expires_in":3599}`))
	}))
	defer srv.Close()

	auth := NewAuthenticator(testCredentials(), srv.URL, srv.Client(), nil)

	tok, err := auth.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok)
}

func TestAccessToken_NeverCached(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3599}`))
	}))
	defer srv.Close()

	auth := NewAuthenticator(testCredentials(), srv.URL, srv.Client(), nil)

	for range 3 {
		_, err := auth.AccessToken(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), calls.Load())
}

func TestAccessToken_RejectedCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	auth := NewAuthenticator(testCredentials(), srv.URL, srv.Client(), nil)

	_, err := auth.AccessToken(context.Background())
	require.Error(t, err)

	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, http.StatusUnauthorized, tokenErr.StatusCode)
	assert.Equal(t, `{"error":"invalid_client"}`, tokenErr.Body)
	assert.Contains(t, err.Error(), "401")
}

func TestAccessToken_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	auth := NewAuthenticator(testCredentials(), url, http.DefaultClient, nil)

	_, err := auth.AccessToken(context.Background())
	require.Error(t, err)

	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Zero(t, tokenErr.StatusCode)
}
