package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// driveItemResponse mirrors the subset of the Graph API driveItem JSON this
// service reads. Unexported; callers use Item via toItem() normalization.
type driveItemResponse struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Size                 int64        `json:"size"`
	LastModifiedDateTime string       `json:"lastModifiedDateTime"`
	ParentReference      *parentRef   `json:"parentReference"`
	Folder               *folderFacet `json:"folder"`
}

type parentRef struct {
	DriveID string `json:"driveId"`
}

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type searchResponse struct {
	Value []driveItemResponse `json:"value"`
}

// toItem normalizes a Graph API driveItem response into our Item type.
func (d *driveItemResponse) toItem() Item {
	item := Item{
		ID:       d.ID,
		Name:     d.Name,
		Size:     d.Size,
		IsFolder: d.Folder != nil,
	}

	if d.ParentReference != nil {
		item.DriveID = d.ParentReference.DriveID
	}

	if t, err := time.Parse(time.RFC3339, d.LastModifiedDateTime); err == nil {
		item.ModifiedAt = t
	}

	return item
}

// searchPath builds the drive search URL path for a site's default drive.
// Single quotes are doubled as OData string literals require.
func searchPath(siteID, query string) string {
	literal := url.PathEscape(strings.ReplaceAll(query, "'", "''"))

	return fmt.Sprintf("/sites/%s/drive/root/search(q='%s')", siteID, literal)
}

// SearchSiteDrive searches the default document library of a site for query
// and returns the first page of matches in the order Graph ranked them.
// Pagination is not followed.
func (c *Client) SearchSiteDrive(ctx context.Context, siteID, query string) ([]Item, error) {
	c.logger.Info("searching site drive",
		slog.String("site_id", siteID),
		slog.String("query", query),
	)

	resp, err := c.Do(ctx, http.MethodGet, searchPath(siteID, query))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("graph: decoding search response: %w", err)
	}

	items := make([]Item, 0, len(sr.Value))
	for i := range sr.Value {
		items = append(items, sr.Value[i].toItem())
	}

	c.logger.Debug("search complete",
		slog.String("site_id", siteID),
		slog.Int("matches", len(items)),
	)

	return items, nil
}
