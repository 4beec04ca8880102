package plugman

import (
	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/config"
	"github.com/roemer/plugman/pkg/releases"
)

// Get a release source for the given release host.
func GetReleaseSource(sourceType common.ReleaseHostType, settings *releases.ReleaseSourceSettings) (common.IReleaseSource, error) {
	return releases.GetReleaseSource(sourceType, settings)
}

// Load the configuration from the default locations.
func LoadDefaultConfig() (*config.PlugmanConfig, error) {
	return LoadConfig("")
}

// Load a given configuration.
func LoadConfig(configPath string) (*config.PlugmanConfig, error) {
	return config.Load(configPath)
}
