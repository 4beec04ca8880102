package config

import (
	"fmt"

	"github.com/roemer/plugman/pkg/common"
)

// Provides the configured plugin locations to the installer.
type PathsProvider struct {
	paths *PathsConfig
}

func NewPathsProvider(paths *PathsConfig) *PathsProvider {
	return &PathsProvider{paths: paths}
}

// Creates a paths provider from the paths of the config.
func (c *PlugmanConfig) PathsProvider() *PathsProvider {
	return NewPathsProvider(c.Paths)
}

func (p *PathsProvider) PluginsDirectory(framework common.FrameworkType) (string, error) {
	frameworkPaths, err := p.frameworkPaths(framework)
	if err != nil {
		return "", err
	}
	if frameworkPaths.Plugins == "" {
		return "", fmt.Errorf("no plugins directory for framework '%s': %w", framework, common.ErrFrameworkUnavailable)
	}
	return frameworkPaths.Plugins, nil
}

func (p *PathsProvider) DependenciesDirectory(framework common.FrameworkType) (string, error) {
	frameworkPaths, err := p.frameworkPaths(framework)
	if err != nil {
		return "", err
	}
	if frameworkPaths.Dependencies == "" {
		return "", fmt.Errorf("no dependencies directory for framework '%s': %w", framework, common.ErrFrameworkUnavailable)
	}
	return frameworkPaths.Dependencies, nil
}

func (p *PathsProvider) StagingDirectory() string {
	return p.paths.Staging
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (p *PathsProvider) frameworkPaths(framework common.FrameworkType) (*FrameworkPathsConfig, error) {
	var frameworkPaths *FrameworkPathsConfig
	switch framework {
	case common.FRAMEWORK_TYPE_LABAPI:
		frameworkPaths = p.paths.LabApi
	case common.FRAMEWORK_TYPE_EXILED:
		frameworkPaths = p.paths.Exiled
	default:
		return nil, fmt.Errorf("unknown framework '%s': %w", framework, common.ErrFrameworkUnavailable)
	}
	if frameworkPaths == nil {
		return nil, fmt.Errorf("framework '%s' is not configured: %w", framework, common.ErrFrameworkUnavailable)
	}
	return frameworkPaths, nil
}
