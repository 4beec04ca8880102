package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/metadata"
	"github.com/samber/lo"
)

type UpdateStatus string

const (
	UPDATE_STATUS_UP_TO_DATE      UpdateStatus = "upToDate"
	UPDATE_STATUS_OUTDATED        UpdateStatus = "outdated"
	UPDATE_STATUS_OUTDATED_PINNED UpdateStatus = "outdatedPinned"
	UPDATE_STATUS_QUERY_FAILED    UpdateStatus = "queryFailed"
)

type UpdateAction string

const (
	UPDATE_ACTION_UPDATED            UpdateAction = "updated"
	UPDATE_ACTION_FAILED             UpdateAction = "failed"
	UPDATE_ACTION_SKIPPED_UP_TO_DATE UpdateAction = "upToDate"
	UPDATE_ACTION_SKIPPED_PINNED     UpdateAction = "pinned"
	UPDATE_ACTION_SKIPPED_NOT_CACHED UpdateAction = "notCached"
	UPDATE_ACTION_SKIPPED_MODIFIED   UpdateAction = "manuallyModified"
	UPDATE_ACTION_REMOVED            UpdateAction = "manuallyRemoved"
)

// The result of the update check of a single plugin.
type PluginCheckResult struct {
	PluginId         string
	InstalledVersion string
	TargetVersion    string
	LatestVersion    string
	Status           UpdateStatus
	// The latest release has a lower version than the installed one.
	LatestIsOlder bool
	Error         error
}

type CheckReport struct {
	Results []*PluginCheckResult
}

// Counts the results with the given status.
func (r *CheckReport) Count(status UpdateStatus) int {
	if r == nil {
		return 0
	}
	return lo.CountBy(r.Results, func(result *PluginCheckResult) bool { return result.Status == status })
}

type PluginUpdateResult struct {
	PluginId    string
	Action      UpdateAction
	FromVersion string
	ToVersion   string
	Error       error
}

type UpdateReport struct {
	// The report of the update check, if one was performed.
	Check   *CheckReport
	Results []*PluginUpdateResult
}

// Gets the result of the given plugin.
func (r *UpdateReport) Get(pluginId string) (*PluginUpdateResult, bool) {
	return lo.Find(r.Results, func(result *PluginUpdateResult) bool { return result.PluginId == pluginId })
}

// Refreshes the latest version of all installed plugins and classifies them.
func (i *Installer) CheckForUpdates(ctx context.Context, scope metadata.Scope) (*CheckReport, error) {
	unlock := i.store.Lock(scope)
	defer unlock()
	return i.checkForUpdates(ctx, scope)
}

// Updates all installed plugins that follow the latest release.
// Manually modified plugins are only replaced with overwrite, pinned plugins are never touched.
func (i *Installer) UpdatePlugins(ctx context.Context, scope metadata.Scope, overwrite bool, skipCheck bool) (*UpdateReport, error) {
	unlock := i.store.Lock(scope)
	defer unlock()

	report := &UpdateReport{Results: []*PluginUpdateResult{}}
	instanceMetadata, err := i.store.Load(scope)
	if err != nil {
		return report, err
	}
	if instanceMetadata == nil || len(instanceMetadata.InstalledPlugins) == 0 {
		i.logger.Info(fmt.Sprintf("No plugins installed for '%s', skipped", scope))
		return report, nil
	}

	if i.isUpdateCheckDue(scope, instanceMetadata) && !skipCheck {
		i.logger.Info("Performing plugins update check")
		if report.Check, err = i.checkForUpdates(ctx, scope); err != nil {
			i.logger.Error(fmt.Sprintf("Plugins update check failed, aborting the update: %v", err))
			return report, err
		}
		if instanceMetadata, err = i.store.Load(scope); err != nil {
			return report, err
		}
		if instanceMetadata == nil || len(instanceMetadata.InstalledPlugins) == 0 {
			i.logger.Info(fmt.Sprintf("No plugins installed for '%s', skipped", scope))
			return report, nil
		}
	}

	pluginsDir, err := scope.PluginsDirectory(i.store.Paths())
	if err != nil {
		return report, err
	}
	pluginIds := instanceMetadata.PluginIds()
	toRemove := []string{}
	for index, pluginId := range pluginIds {
		i.logger.Info(fmt.Sprintf("Processing plugin '%s' (%d/%d)", pluginId, index+1, len(pluginIds)))
		installedPlugin := instanceMetadata.InstalledPlugins[pluginId]
		result := &PluginUpdateResult{PluginId: pluginId, FromVersion: installedPlugin.CurrentVersion}
		report.Results = append(report.Results, result)

		pluginPath := filepath.Join(pluginsDir, common.PluginFileName(pluginId))
		if exists, err := common.FileExists(pluginPath); err != nil {
			result.Action, result.Error = UPDATE_ACTION_FAILED, err
			continue
		} else if !exists {
			i.logger.Info(fmt.Sprintf("Plugin '%s' has been manually uninstalled, skipped", pluginId))
			result.Action = UPDATE_ACTION_REMOVED
			toRemove = append(toRemove, pluginId)
			continue
		}

		currentHash, err := common.FileHashSha256(pluginPath)
		if err != nil {
			result.Action, result.Error = UPDATE_ACTION_FAILED, err
			continue
		}
		forced := false
		if currentHash != installedPlugin.FileHash {
			if !overwrite {
				i.logger.Warn(fmt.Sprintf("Plugin '%s' has been manually modified. Run the update with overwrite to replace it, skipped", pluginId))
				result.Action = UPDATE_ACTION_SKIPPED_MODIFIED
				continue
			}
			i.logger.Warn(fmt.Sprintf("Plugin '%s' has been manually modified", pluginId))
			forced = true
		}

		if !common.IsLatestSelector(installedPlugin.TargetVersion) {
			i.logger.Info(fmt.Sprintf("Plugin '%s' is pinned to version '%s', skipped", pluginId, installedPlugin.TargetVersion))
			result.Action = UPDATE_ACTION_SKIPPED_PINNED
			continue
		}

		cachedRecord, ok := i.versionCache.Get(pluginId)
		if !ok {
			i.logger.Warn(fmt.Sprintf("Plugin '%s' is not cached, skipped", pluginId))
			result.Action = UPDATE_ACTION_SKIPPED_NOT_CACHED
			continue
		}
		if !forced && strings.EqualFold(cachedRecord.Version, installedPlugin.CurrentVersion) {
			i.logger.Info(fmt.Sprintf("Plugin '%s' is up to date, skipped", pluginId))
			result.Action = UPDATE_ACTION_SKIPPED_UP_TO_DATE
			continue
		}

		i.logger.Info(fmt.Sprintf("Updating plugin '%s' to version '%s'", pluginId, cachedRecord.Version))
		result.ToVersion = cachedRecord.Version
		if err := i.install(ctx, pluginId, cachedRecord, common.VERSION_SELECTOR_LATEST, scope, overwrite); err != nil {
			result.Action, result.Error = UPDATE_ACTION_FAILED, err
			continue
		}
		result.Action = UPDATE_ACTION_UPDATED
	}

	if len(toRemove) > 0 {
		i.logger.Info("Removing manually uninstalled plugins from the metadata")
		currentMetadata, err := i.store.Load(scope)
		if err != nil {
			return report, err
		}
		if currentMetadata != nil {
			for _, pluginId := range toRemove {
				delete(currentMetadata.InstalledPlugins, pluginId)
			}
			if err := i.saveMetadata(scope, currentMetadata, nil); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (i *Installer) checkForUpdates(ctx context.Context, scope metadata.Scope) (*CheckReport, error) {
	report := &CheckReport{Results: []*PluginCheckResult{}}
	instanceMetadata, err := i.store.Load(scope)
	if err != nil {
		return report, err
	}
	if instanceMetadata == nil {
		i.logger.Info(fmt.Sprintf("No metadata exists for '%s', skipped", scope))
		return report, nil
	}

	pluginIds := instanceMetadata.PluginIds()
	for index, pluginId := range pluginIds {
		installedPlugin := instanceMetadata.InstalledPlugins[pluginId]
		i.logger.Info(fmt.Sprintf("Querying plugin '%s' (%d/%d)", pluginId, index+1, len(pluginIds)))
		result := &PluginCheckResult{
			PluginId:         pluginId,
			InstalledVersion: installedPlugin.CurrentVersion,
			TargetVersion:    installedPlugin.TargetVersion,
		}
		report.Results = append(report.Results, result)

		record, err := i.versionCache.Refresh(ctx, pluginId, true)
		if err != nil {
			result.Status, result.Error = UPDATE_STATUS_QUERY_FAILED, err
			continue
		}
		result.LatestVersion = record.Version
		switch {
		case record.Version == installedPlugin.CurrentVersion:
			i.logger.Info(fmt.Sprintf("Plugin '%s' (version '%s') is up to date", pluginId, installedPlugin.CurrentVersion))
			result.Status = UPDATE_STATUS_UP_TO_DATE
		case common.IsLatestSelector(installedPlugin.TargetVersion):
			i.logger.Warn(fmt.Sprintf("Plugin '%s' (version '%s') is outdated, latest version: '%s'", pluginId, installedPlugin.CurrentVersion, record.Version))
			result.Status = UPDATE_STATUS_OUTDATED
		default:
			i.logger.Info(fmt.Sprintf("Plugin '%s' (version '%s') is outdated but pinned, latest version: '%s'", pluginId, installedPlugin.CurrentVersion, record.Version))
			result.Status = UPDATE_STATUS_OUTDATED_PINNED
		}
		if result.Status != UPDATE_STATUS_UP_TO_DATE && isOlderVersion(record.Version, installedPlugin.CurrentVersion) {
			i.logger.Warn(fmt.Sprintf("The latest release of plugin '%s' is older than the installed version", pluginId))
			result.LatestIsOlder = true
		}
	}

	i.logger.Info(fmt.Sprintf("Finished checking for plugin updates for '%s'. Up to date: %d, outdated: %d, outdated (pinned): %d, failed: %d",
		scope, report.Count(UPDATE_STATUS_UP_TO_DATE), report.Count(UPDATE_STATUS_OUTDATED), report.Count(UPDATE_STATUS_OUTDATED_PINNED), report.Count(UPDATE_STATUS_QUERY_FAILED)))

	if len(pluginIds) > 0 {
		if err := i.versionCache.Flush(); err != nil {
			i.logger.Error(fmt.Sprintf("Failed to write the registry cache: %v", err))
			return report, err
		}
	}
	checkedAt := i.now()
	instanceMetadata.LastUpdateCheck = &checkedAt
	return report, i.saveMetadata(scope, instanceMetadata, nil)
}

// Checks if the last update check of the scope is missing or older than the update check interval.
func (i *Installer) isUpdateCheckDue(scope metadata.Scope, instanceMetadata *metadata.InstanceMetadata) bool {
	if instanceMetadata.LastUpdateCheck == nil {
		i.logger.Info(fmt.Sprintf("The update check for '%s' was never performed", scope))
		return true
	}
	if i.now().Sub(*instanceMetadata.LastUpdateCheck) > common.UPDATE_CHECK_INTERVAL {
		i.logger.Info(fmt.Sprintf("The last update check for '%s' is older than %s", scope, common.UPDATE_CHECK_INTERVAL))
		return true
	}
	return false
}
