package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// siteResponse mirrors the Graph API site JSON response.
type siteResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

func (s *siteResponse) toSite() Site {
	return Site{
		ID:          s.ID,
		Name:        s.Name,
		DisplayName: s.DisplayName,
	}
}

// encodePathSegments URL-encodes each segment of a slash-separated path.
func encodePathSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}

// SiteByPath resolves a site addressed by hostname and server-relative path,
// e.g. ("contoso.sharepoint.com", "/sites/Team"). It does not search: the
// caller must already know where the site lives.
func (c *Client) SiteByPath(ctx context.Context, hostname, sitePath string) (*Site, error) {
	if !strings.HasPrefix(sitePath, "/") {
		sitePath = "/" + sitePath
	}

	c.logger.Info("resolving site",
		slog.String("hostname", hostname),
		slog.String("site_path", sitePath),
	)

	path := fmt.Sprintf("/sites/%s:%s", hostname, encodePathSegments(sitePath))

	resp, err := c.Do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr siteResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("graph: decoding site response: %w", err)
	}

	site := sr.toSite()

	c.logger.Debug("resolved site",
		slog.String("id", site.ID),
		slog.String("display_name", site.DisplayName),
	)

	return &site, nil
}
