package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/metadata"
)

// Aligns the metadata of the scope with the files that actually exist.
func (i *Installer) Sweep(scope metadata.Scope) error {
	unlock := i.store.Lock(scope)
	defer unlock()
	return i.sweep(scope)
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (i *Installer) sweep(scope metadata.Scope) error {
	pluginsDir, err := scope.PluginsDirectory(i.store.Paths())
	if err != nil {
		return err
	}
	if exists, err := common.DirectoryExists(pluginsDir); err != nil {
		return err
	} else if !exists {
		i.logger.Info(fmt.Sprintf("Plugins directory for '%s' does not exist, no maintenance needed", scope))
		return nil
	}
	dependenciesDir, err := scope.DependenciesDirectory(i.store.Paths())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dependenciesDir, os.ModePerm); err != nil {
		return err
	}

	instanceMetadata, err := i.store.Load(scope)
	if err != nil {
		i.logger.Error(fmt.Sprintf("Failed to read the metadata for '%s': %v", scope, err))
		return err
	}
	if instanceMetadata == nil {
		i.logger.Info(fmt.Sprintf("No metadata exists for '%s', no maintenance needed", scope))
		return nil
	}

	err = i.reconcile(instanceMetadata, pluginsDir, dependenciesDir)
	if err = i.saveMetadata(scope, instanceMetadata, err); err != nil {
		i.logger.Error(fmt.Sprintf("Failed to perform maintenance for '%s': %v", scope, err))
		return err
	}
	i.logger.Info(fmt.Sprintf("Maintenance for '%s' complete", scope))
	return nil
}

func (i *Installer) reconcile(instanceMetadata *metadata.InstanceMetadata, pluginsDir string, dependenciesDir string) error {
	for _, pluginId := range instanceMetadata.PluginIds() {
		exists, err := common.FileExists(filepath.Join(pluginsDir, common.PluginFileName(pluginId)))
		if err != nil {
			return err
		}
		if !exists {
			i.logger.Info(fmt.Sprintf("Plugin '%s' has been manually removed", pluginId))
			delete(instanceMetadata.InstalledPlugins, pluginId)
		}
	}

	for _, name := range instanceMetadata.DependencyNames() {
		exists, err := common.FileExists(filepath.Join(dependenciesDir, name))
		if err != nil {
			return err
		}
		if !exists {
			i.logger.Info(fmt.Sprintf("Dependency '%s' has been manually removed", name))
			delete(instanceMetadata.Dependencies, name)
			continue
		}
		dependencyRecord := instanceMetadata.Dependencies[name]
		for _, depender := range dependencyRecord.InstalledByPlugins.Sorted() {
			if _, ok := instanceMetadata.InstalledPlugins[depender]; ok {
				continue
			}
			dependencyRecord.InstalledByPlugins.Remove(depender)
			i.logger.Info(fmt.Sprintf("Removed non-existing plugin '%s' from dependency '%s'", depender, name))
		}
	}

	i.removeOrphanedDependencies(instanceMetadata, dependenciesDir)
	return nil
}
