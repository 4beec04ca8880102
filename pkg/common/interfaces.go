package common

import "context"

// This is the interface the host environment supplies to resolve the plugin locations.
type IPathsProvider interface {
	// Gets the base directory for plugins of the given framework.
	PluginsDirectory(framework FrameworkType) (string, error)
	// Gets the base directory for dependencies of the given framework.
	DependenciesDirectory(framework FrameworkType) (string, error)
	// Gets the directory used for transient downloads and extractions.
	StagingDirectory() string
}

// This is the interface that needs to be implemented by all release hosts.
type IReleaseSource interface {
	// Gets the type of the release host.
	Type() ReleaseHostType
	// Gets the latest public release of the plugin.
	GetLatestRelease(ctx context.Context, pluginId string) (*ReleaseInfo, error)
	// Gets the release of the plugin with the given tag.
	GetReleaseByTag(ctx context.Context, pluginId string, tag string) (*ReleaseInfo, error)
}

// This is the interface to resolve plugin releases into version records.
type IVersionResolver interface {
	// Resolves the latest public release of the plugin.
	ResolveLatest(ctx context.Context, pluginId string, interactive bool) (*VersionRecord, error)
	// Resolves the release with the given tag.
	ResolveTag(ctx context.Context, pluginId string, tag string, interactive bool) (*VersionRecord, error)
}
