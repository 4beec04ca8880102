package common

import (
	"fmt"
	"strings"
)

// Validates that the given plugin identifier has the form "owner/repository".
func ValidatePluginId(pluginId string) error {
	if strings.Count(pluginId, "/") != 1 {
		return fmt.Errorf("%w: '%s'", ErrInvalidPluginId, pluginId)
	}
	owner, repository := SplitPluginId(pluginId)
	if owner == "" || repository == "" {
		return fmt.Errorf("%w: '%s'", ErrInvalidPluginId, pluginId)
	}
	return nil
}

// Splits the plugin identifier into "owner" and "repository".
func SplitPluginId(pluginId string) (string, string) {
	parts := strings.SplitN(pluginId, "/", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// Gets the file name of the binary for the given plugin.
func PluginFileName(pluginId string) string {
	return SafePluginName(pluginId) + PLUGIN_FILE_EXTENSION
}

// Gets a name for the plugin that can be used on the file system.
func SafePluginName(pluginId string) string {
	return strings.ReplaceAll(pluginId, "/", "_")
}

// Checks if the given target version selector follows the latest release.
func IsLatestSelector(targetVersion string) bool {
	return targetVersion == "" || strings.EqualFold(targetVersion, VERSION_SELECTOR_LATEST)
}
