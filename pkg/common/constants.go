package common

import "time"

var TruePtr *bool = &[]bool{true}[0]
var FalsePtr *bool = &[]bool{false}[0]

type FrameworkType string

const (
	FRAMEWORK_TYPE_LABAPI FrameworkType = "labapi"
	FRAMEWORK_TYPE_EXILED FrameworkType = "exiled"
)

type ReleaseHostType string

const (
	RELEASE_HOST_TYPE_GITHUB ReleaseHostType = "github"
	RELEASE_HOST_TYPE_GITEA  ReleaseHostType = "gitea"
	RELEASE_HOST_TYPE_GITLAB ReleaseHostType = "gitlab"
)

const (
	// The target version selector that follows the newest release.
	VERSION_SELECTOR_LATEST = "latest"
	// The instance identifier that denotes the shared exiled location.
	INSTANCE_GLOBAL = "global"
)

const (
	PLUGIN_FILE_EXTENSION     = ".dll"
	PLUGIN_NW_API_SUFFIX      = "-nw.dll"
	DEPENDENCIES_ASSET_NAME   = "dependencies.zip"
	METADATA_FILE_NAME        = "metadata.json"
	REGISTRY_CACHE_FILE_NAME  = "internal_data.json"
	DEFAULT_CATALOG_BASE_URL  = "https://plugins.scpslgame.com/api/v1/"
	DEFAULT_GITHUB_API_HOST   = "api.github.com"
	DEFAULT_HTTP_TIMEOUT      = 45 * time.Second
	CATALOG_REFRESH_INTERVAL  = 10 * time.Minute
	UPDATE_CHECK_INTERVAL     = 30 * time.Minute
	MAX_DEPENDENCY_FILE_BYTES = 256 * 1024 * 1024
)
