package common

import "time"

// This type contains the resolved release of a plugin.
type VersionRecord struct {
	// The tag of the release.
	Version string `json:"version"`
	// The numeric id of the release on the release host.
	ReleaseId int64 `json:"releaseId"`
	// The time when the release was published.
	PublishmentTime time.Time `json:"publishmentTime"`
	// The time when this record was resolved.
	LastRefreshed time.Time `json:"lastRefreshed"`
	// The url of the plugin binary asset.
	DllDownloadUrl string `json:"dllDownloadUrl"`
	// The url of the optional dependency bundle asset.
	DependenciesDownloadUrl string `json:"dependenciesDownloadUrl,omitempty"`
}

// Checks if the release ships a dependency bundle.
func (r *VersionRecord) HasDependencies() bool {
	return r.DependenciesDownloadUrl != ""
}
