package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteByPath_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/contoso.sharepoint.com:/sites/Team", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "contoso.sharepoint.com,1111,2222",
			"name": "Team",
			"displayName": "Team Site",
			"webUrl": "https://contoso.sharepoint.com/sites/Team"
		}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	site, err := client.SiteByPath(context.Background(), "contoso.sharepoint.com", "/sites/Team")
	require.NoError(t, err)
	assert.Equal(t, "contoso.sharepoint.com,1111,2222", site.ID)
	assert.Equal(t, "Team", site.Name)
	assert.Equal(t, "Team Site", site.DisplayName)
	assert.Equal(t, "Team Site", site.Label())
}

func TestSiteByPath_AddsLeadingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/host:/sites/Team", r.URL.Path)
		fmt.Fprint(w, `{"id":"x"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.SiteByPath(context.Background(), "host", "sites/Team")
	require.NoError(t, err)
}

func TestSiteByPath_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"itemNotFound"}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.SiteByPath(context.Background(), "host", "/sites/Nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestSiteLabel_FallsBackToName(t *testing.T) {
	assert.Equal(t, "Team", Site{Name: "Team"}.Label())
}
