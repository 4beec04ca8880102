package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/metadata"
)

// An installed plugin as shown in listings.
type PluginListEntry struct {
	PluginId         string
	InstalledVersion string
	TargetVersion    string
	// The cached latest version or empty if unknown.
	LatestVersion string
	// The binary on disk still matches the recorded hash.
	IntegrityCheckPassed bool
	// The sorted file names of the dependencies used by the plugin.
	Dependencies []string
}

type ListState string

const (
	LIST_STATE_UNKNOWN    ListState = "unknown"
	LIST_STATE_UP_TO_DATE ListState = "up to date"
	LIST_STATE_OUTDATED   ListState = "outdated"
)

// Gets the update state, unknown as long as no latest version was cached.
func (e *PluginListEntry) State() ListState {
	if e.LatestVersion == "" {
		return LIST_STATE_UNKNOWN
	}
	if e.InstalledVersion == e.LatestVersion {
		return LIST_STATE_UP_TO_DATE
	}
	return LIST_STATE_OUTDATED
}

func (e *PluginListEntry) UpToDate() bool {
	return e.State() == LIST_STATE_UP_TO_DATE
}

func (e *PluginListEntry) Pinned() bool {
	return !common.IsLatestSelector(e.TargetVersion)
}

// Gets the installed version or a marker if the binary was modified.
func (e *PluginListEntry) InstalledVersionValidated() string {
	if e.IntegrityCheckPassed {
		return common.ValueOrPlaceholder(e.InstalledVersion)
	}
	return "UNKNOWN - manually modified"
}

// Lists the installed plugins of the scope. Runs an update check first when the last one is due.
// Plugins whose binary is missing are left out.
func (i *Installer) ListPlugins(ctx context.Context, scope metadata.Scope, skipCheck bool) ([]*PluginListEntry, error) {
	unlock := i.store.Lock(scope)
	defer unlock()

	entries := []*PluginListEntry{}
	pluginsDir, err := scope.PluginsDirectory(i.store.Paths())
	if err != nil {
		return entries, err
	}
	instanceMetadata, err := i.store.Load(scope)
	if err != nil {
		return entries, err
	}
	if instanceMetadata == nil {
		i.logger.Info(fmt.Sprintf("No metadata exists for '%s', skipped", scope))
		return entries, nil
	}

	if i.isUpdateCheckDue(scope, instanceMetadata) && !skipCheck {
		i.logger.Info("Performing plugins update check")
		if _, err := i.checkForUpdates(ctx, scope); err != nil {
			i.logger.Warn(fmt.Sprintf("Plugins update check failed: %v", err))
		}
		if instanceMetadata, err = i.store.Load(scope); err != nil {
			return entries, err
		}
	}

	for _, pluginId := range instanceMetadata.PluginIds() {
		installedPlugin := instanceMetadata.InstalledPlugins[pluginId]
		pluginPath := filepath.Join(pluginsDir, common.PluginFileName(pluginId))
		exists, err := common.FileExists(pluginPath)
		if err != nil {
			return entries, err
		}
		if !exists {
			i.logger.Warn(fmt.Sprintf("Plugin '%s' does not exist, running the maintenance is recommended", pluginId))
			continue
		}
		currentHash, err := common.FileHashSha256(pluginPath)
		if err != nil {
			return entries, err
		}
		latestVersion := ""
		if cachedRecord, ok := i.versionCache.Get(pluginId); ok {
			latestVersion = cachedRecord.Version
		}
		entries = append(entries, &PluginListEntry{
			PluginId:             pluginId,
			InstalledVersion:     installedPlugin.CurrentVersion,
			TargetVersion:        installedPlugin.TargetVersion,
			LatestVersion:        latestVersion,
			IntegrityCheckPassed: currentHash == installedPlugin.FileHash,
			Dependencies:         instanceMetadata.DependenciesOf(pluginId),
		})
	}
	return entries, nil
}
