package common

import "time"

// This type contains the information about a release as returned by a release host.
type ReleaseInfo struct {
	// The tag of the release. Empty if the host returned no usable release.
	TagName string
	// The numeric id of the release.
	ReleaseId int64
	// The time when the release was published.
	PublishedAt time.Time
	// An optional message the host returned instead of a release.
	Message string
	// The assets attached to the release.
	Assets []*ReleaseAsset
}

// A downloadable asset of a release.
type ReleaseAsset struct {
	Name string
	Url  string
}
