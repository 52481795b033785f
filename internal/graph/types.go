package graph

import "time"

// Site is a SharePoint site as returned by GET /sites/{hostname}:{path}.
type Site struct {
	ID          string
	Name        string
	DisplayName string
}

// Label returns the name used when talking about the site to a human:
// the display name when set, otherwise the URL name.
func (s Site) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}

	return s.Name
}

// Item represents a drive item (file or folder) returned by a drive search.
// Fields are normalized from the Graph API response; callers never see raw
// API data.
type Item struct {
	ID         string
	Name       string
	DriveID    string // parentReference.driveId, passed through unchanged
	Size       int64
	IsFolder   bool
	ModifiedAt time.Time // zero when the response omitted or mangled it
}
