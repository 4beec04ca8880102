package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/metadata"
)

// Matches all plugin binaries inside an extracted dependency bundle.
const dependencyFilePattern = "**/*.[dD][lL][lL]"

// Installs the given release of the plugin into the scope.
// The target version is either "latest" or the pinned tag.
func (i *Installer) Install(ctx context.Context, pluginId string, record *common.VersionRecord, targetVersion string, scope metadata.Scope, overwrite bool) error {
	unlock := i.store.Lock(scope)
	defer unlock()
	return i.install(ctx, pluginId, record, targetVersion, scope, overwrite)
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (i *Installer) install(ctx context.Context, pluginId string, record *common.VersionRecord, targetVersion string, scope metadata.Scope, overwrite bool) error {
	if err := common.ValidatePluginId(pluginId); err != nil {
		i.logger.Error(fmt.Sprintf("Plugin name '%s' is invalid", pluginId))
		return err
	}
	if record == nil || record.DllDownloadUrl == "" {
		return fmt.Errorf("no release given for plugin '%s': %w", pluginId, common.ErrNoRelease)
	}
	if common.IsLatestSelector(targetVersion) {
		targetVersion = common.VERSION_SELECTOR_LATEST
	}

	pluginsDir, dependenciesDir, err := i.store.EnsureDirectories(scope)
	if err != nil {
		return err
	}
	instanceMetadata, err := i.store.LoadOrInit(scope)
	if err != nil {
		return err
	}

	if !overwrite {
		i.logger.Debug(fmt.Sprintf("Checking if plugin '%s' is already installed", pluginId))
		if installedPlugin, ok := instanceMetadata.InstalledPlugins[pluginId]; ok && installedPlugin.CurrentVersion == record.Version {
			i.logger.Info(fmt.Sprintf("Plugin '%s' is already installed in version '%s', skipping", pluginId, record.Version))
			return nil
		}
	}

	operationDir, cleanup, err := i.createOperationDirectory(pluginId)
	if err != nil {
		return err
	}
	defer cleanup()

	currentDependencies := []string{}
	if record.HasDependencies() {
		currentDependencies, err = i.installDependencies(ctx, pluginId, record, instanceMetadata, dependenciesDir, operationDir, overwrite)
		if err = i.saveMetadata(scope, instanceMetadata, err); err != nil {
			i.logger.Error(fmt.Sprintf("Failed to install the dependencies of plugin '%s': %v", pluginId, err))
			return err
		}
	}

	i.logger.Info(fmt.Sprintf("Downloading plugin '%s' in version '%s'", pluginId, record.Version))
	stagedBinary := filepath.Join(operationDir, common.PluginFileName(pluginId))
	if err := i.httpClient.DownloadToFile(ctx, record.DllDownloadUrl, stagedBinary); err != nil {
		i.logger.Error(fmt.Sprintf("Failed to download plugin '%s': %v", pluginId, err))
		return err
	}

	runSweep, err := i.placeBinary(pluginId, record, targetVersion, instanceMetadata, stagedBinary, filepath.Join(pluginsDir, common.PluginFileName(pluginId)), currentDependencies)
	if err = i.saveMetadata(scope, instanceMetadata, err); err != nil {
		i.logger.Error(fmt.Sprintf("Failed to install plugin '%s': %v", pluginId, err))
		return err
	}
	i.logger.Info(fmt.Sprintf("Plugin '%s' has been successfully installed in version '%s'", pluginId, record.Version))

	if runSweep {
		i.logger.Info("Performing automatic maintenance")
		if err := i.sweep(scope); err != nil {
			i.logger.Warn(fmt.Sprintf("Automatic maintenance failed: %v", err))
		}
	}
	return nil
}

// Downloads and extracts the dependency bundle and moves the contained dependencies into place.
// Returns the file names of all dependencies in the bundle.
func (i *Installer) installDependencies(ctx context.Context, pluginId string, record *common.VersionRecord, instanceMetadata *metadata.InstanceMetadata, dependenciesDir string, operationDir string, overwrite bool) ([]string, error) {
	i.logger.Info(fmt.Sprintf("Downloading dependencies for plugin '%s'", pluginId))
	archivePath := filepath.Join(operationDir, common.DEPENDENCIES_ASSET_NAME)
	if err := i.httpClient.DownloadToFile(ctx, record.DependenciesDownloadUrl, archivePath); err != nil {
		return nil, err
	}

	i.logger.Debug(fmt.Sprintf("Unpacking dependencies for plugin '%s'", pluginId))
	extractDir := filepath.Join(operationDir, "dependencies")
	if _, err := common.DeleteDirectoryIfExists(extractDir); err != nil {
		return nil, err
	}
	if _, err := common.ExtractZip(archivePath, extractDir); err != nil {
		return nil, fmt.Errorf("failed extracting the dependencies: %w", err)
	}
	stagedFiles, err := common.SearchFiles(extractDir, []string{dependencyFilePattern}, nil)
	if err != nil {
		return nil, err
	}
	slices.Sort(stagedFiles)

	currentDependencies := []string{}
	for _, stagedFile := range stagedFiles {
		fileName := filepath.Base(stagedFile)
		if slices.Contains(currentDependencies, fileName) {
			i.logger.Warn(fmt.Sprintf("Dependency '%s' is contained multiple times in the bundle, using the first one", fileName))
			continue
		}
		currentDependencies = append(currentDependencies, fileName)
		if err := i.installDependency(pluginId, fileName, stagedFile, instanceMetadata, dependenciesDir, overwrite); err != nil {
			return currentDependencies, err
		}
	}
	return currentDependencies, nil
}

func (i *Installer) installDependency(pluginId string, fileName string, stagedFile string, instanceMetadata *metadata.InstanceMetadata, dependenciesDir string, overwrite bool) error {
	i.logger.Debug(fmt.Sprintf("Processing dependency '%s'", fileName))
	targetPath := filepath.Join(dependenciesDir, fileName)
	existsOnDisk, err := common.FileExists(targetPath)
	if err != nil {
		return err
	}
	newHash, err := common.FileHashSha256(stagedFile)
	if err != nil {
		return err
	}

	dependencyRecord, hasRecord := instanceMetadata.Dependencies[fileName]
	if hasRecord && !existsOnDisk {
		i.logger.Debug(fmt.Sprintf("Dropping the stale record of the removed dependency '%s'", fileName))
		delete(instanceMetadata.Dependencies, fileName)
		hasRecord = false
	}

	if !hasRecord {
		if existsOnDisk {
			existingHash, err := common.FileHashSha256(targetPath)
			if err != nil {
				return err
			}
			if existingHash != newHash {
				i.logger.Warn(fmt.Sprintf("Dependency '%s' is already installed in a different version and not managed yet, overwriting", fileName))
			}
			i.logger.Warn(fmt.Sprintf("Dependency '%s' is already installed but was not registered, adding it to the metadata", fileName))
		}
		if err := common.MoveFile(stagedFile, targetPath); err != nil {
			return err
		}
		now := i.now()
		instanceMetadata.Dependencies[fileName] = &metadata.DependencyRecord{
			FileHash:           newHash,
			InstallationDate:   now,
			UpdateDate:         now,
			InstalledByPlugins: metadata.NewDependerSet(pluginId),
			ManuallyInstalled:  existsOnDisk,
		}
		i.logger.Info(fmt.Sprintf("Installed dependency '%s'", fileName))
		return nil
	}

	currentHash, err := common.FileHashSha256(targetPath)
	if err != nil {
		return err
	}
	replace := false
	if currentHash != dependencyRecord.FileHash {
		if !overwrite {
			i.logger.Error(fmt.Sprintf("Dependency '%s' has been manually modified. Run the installation with overwrite to replace it", fileName))
			return fmt.Errorf("dependency '%s' was modified: %w", fileName, common.ErrDrift)
		}
		i.logger.Warn(fmt.Sprintf("Dependency '%s' has been manually modified, overwriting", fileName))
		replace = true
	}
	if newHash != dependencyRecord.FileHash {
		if !overwrite {
			i.logger.Error(fmt.Sprintf("Dependency '%s' is already installed in a different version. Run the installation with overwrite to replace it", fileName))
			return fmt.Errorf("dependency '%s' differs from the installed one: %w", fileName, common.ErrDrift)
		}
		i.logger.Warn(fmt.Sprintf("Dependency '%s' is already installed in a different version, overwriting", fileName))
		replace = true
	}

	if replace {
		if err := common.MoveFile(stagedFile, targetPath); err != nil {
			return err
		}
		dependencyRecord.FileHash = newHash
		dependencyRecord.UpdateDate = i.now()
		i.logger.Info(fmt.Sprintf("Installed dependency '%s'", fileName))
	} else {
		i.logger.Debug(fmt.Sprintf("Dependency '%s' is already installed", fileName))
	}
	dependencyRecord.InstalledByPlugins.Add(pluginId)
	return nil
}

// Moves the binary into place, records it and releases the dependencies the plugin no longer uses.
// Returns true if a dependency got orphaned.
func (i *Installer) placeBinary(pluginId string, record *common.VersionRecord, targetVersion string, instanceMetadata *metadata.InstanceMetadata, stagedBinary string, pluginPath string, currentDependencies []string) (bool, error) {
	i.logger.Debug(fmt.Sprintf("Installing plugin '%s'", pluginId))
	if err := common.MoveFile(stagedBinary, pluginPath); err != nil {
		return false, err
	}
	hash, err := common.FileHashSha256(pluginPath)
	if err != nil {
		return false, err
	}

	now := i.now()
	if installedPlugin, ok := instanceMetadata.InstalledPlugins[pluginId]; ok {
		installedPlugin.FileHash = hash
		installedPlugin.UpdateDate = now
		installedPlugin.CurrentVersion = record.Version
		installedPlugin.TargetVersion = targetVersion
	} else {
		instanceMetadata.InstalledPlugins[pluginId] = &metadata.InstalledPlugin{
			FileHash:         hash,
			InstallationDate: now,
			UpdateDate:       now,
			CurrentVersion:   record.Version,
			TargetVersion:    targetVersion,
		}
	}

	runSweep := false
	for _, name := range instanceMetadata.DependenciesOf(pluginId) {
		if slices.Contains(currentDependencies, name) {
			continue
		}
		dependencyRecord := instanceMetadata.Dependencies[name]
		dependencyRecord.InstalledByPlugins.Remove(pluginId)
		i.logger.Info(fmt.Sprintf("Dependency '%s' is no longer needed by plugin '%s'", name, pluginId))
		if dependencyRecord.IsOrphaned() {
			i.logger.Info(fmt.Sprintf("Dependency '%s' is no longer needed by any plugin, maintenance will be performed", name))
			runSweep = true
		}
	}
	return runSweep, nil
}
