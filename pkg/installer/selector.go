package installer

import (
	"context"
	"fmt"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/metadata"
)

// Resolves the selector and installs the resulting release. The selector "latest" refreshes the
// cached version and follows the latest release, any other selector is a tag the plugin gets pinned to.
func (i *Installer) InstallBySelector(ctx context.Context, pluginId string, selector string, scope metadata.Scope, overwrite bool) error {
	if err := common.ValidatePluginId(pluginId); err != nil {
		i.logger.Error(fmt.Sprintf("Plugin name '%s' is invalid", pluginId))
		return err
	}

	if common.IsLatestSelector(selector) {
		record, err := i.versionCache.Refresh(ctx, pluginId, true)
		if err != nil {
			return err
		}
		if err := i.versionCache.Flush(); err != nil {
			i.logger.Warn(fmt.Sprintf("Failed to write the registry cache: %v", err))
		}
		return i.Install(ctx, pluginId, record, common.VERSION_SELECTOR_LATEST, scope, overwrite)
	}

	record, err := i.versionCache.ResolveTag(ctx, pluginId, selector, true)
	if err != nil {
		return err
	}
	return i.Install(ctx, pluginId, record, selector, scope, overwrite)
}
