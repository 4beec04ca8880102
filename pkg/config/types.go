package config

import (
	"github.com/roemer/plugman/pkg/common"
)

// This type represents the plugman config object.
type PlugmanConfig struct {
	// The directories plugins and their dependencies are installed to.
	Paths *PathsConfig `json:"paths" yaml:"paths"`
	// Settings for the official plugin catalog.
	Catalog *CatalogConfig `json:"catalog" yaml:"catalog"`
	// Settings for the host that serves the plugin releases.
	ReleaseHost *ReleaseHostConfig `json:"releaseHost" yaml:"releaseHost"`
	// A list of rules that can apply to hosts.
	HostRules []*common.HostRule `json:"hostRules" yaml:"hostRules"`
	// The timeout in seconds for each http request. Defaults to 45.
	HttpTimeoutSeconds int `json:"httpTimeoutSeconds" yaml:"httpTimeoutSeconds"`
	// The user agent sent with each request.
	UserAgent string `json:"userAgent" yaml:"userAgent"`
}

type PathsConfig struct {
	LabApi *FrameworkPathsConfig `json:"labapi" yaml:"labapi"`
	Exiled *FrameworkPathsConfig `json:"exiled" yaml:"exiled"`
	// The directory where downloads are staged before they are moved into place.
	Staging string `json:"staging" yaml:"staging"`
	// The path to the persisted registry cache file.
	RegistryCache string `json:"registryCache" yaml:"registryCache"`
}

// The base directories of a framework. Instance specific folders are created below them.
type FrameworkPathsConfig struct {
	Plugins      string `json:"plugins" yaml:"plugins"`
	Dependencies string `json:"dependencies" yaml:"dependencies"`
}

type CatalogConfig struct {
	BaseUrl string `json:"baseUrl" yaml:"baseUrl"`
}

type ReleaseHostConfig struct {
	Type     common.ReleaseHostType `json:"type" yaml:"type"`
	Endpoint string                 `json:"endpoint" yaml:"endpoint"`
}
