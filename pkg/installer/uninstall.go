package installer

import (
	"fmt"
	"path/filepath"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/metadata"
)

// Removes the plugin from the scope and deletes the dependencies nothing else needs anymore.
// A missing binary or missing metadata is not an error.
func (i *Installer) Uninstall(pluginId string, scope metadata.Scope) error {
	unlock := i.store.Lock(scope)
	defer unlock()

	if err := common.ValidatePluginId(pluginId); err != nil {
		i.logger.Error(fmt.Sprintf("Plugin name '%s' is invalid", pluginId))
		return err
	}
	pluginsDir, dependenciesDir, err := i.store.EnsureDirectories(scope)
	if err != nil {
		return err
	}

	deleted, err := common.DeleteIfExists(filepath.Join(pluginsDir, common.PluginFileName(pluginId)))
	if err != nil {
		i.logger.Error(fmt.Sprintf("Failed to delete plugin '%s': %v", pluginId, err))
		return err
	}
	if deleted {
		i.logger.Info(fmt.Sprintf("Binary of plugin '%s' deleted", pluginId))
	} else {
		i.logger.Warn(fmt.Sprintf("Binary of plugin '%s' does not exist", pluginId))
	}

	instanceMetadata, err := i.store.Load(scope)
	if err != nil {
		return err
	}
	if instanceMetadata == nil {
		i.logger.Warn(fmt.Sprintf("No metadata exists for '%s'", scope))
		i.logger.Info(fmt.Sprintf("Uninstallation of plugin '%s' complete", pluginId))
		return nil
	}

	delete(instanceMetadata.InstalledPlugins, pluginId)
	instanceMetadata.RemoveDepender(pluginId)
	i.removeOrphanedDependencies(instanceMetadata, dependenciesDir)

	if err := i.saveMetadata(scope, instanceMetadata, nil); err != nil {
		return err
	}
	i.logger.Info(fmt.Sprintf("Plugin '%s' has been successfully uninstalled", pluginId))
	return nil
}
