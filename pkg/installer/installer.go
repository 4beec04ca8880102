package installer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roemer/plugman/pkg/cache"
	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/metadata"
)

type InstallerSettings struct {
	Logger *slog.Logger
	// The store for the metadata of the scopes.
	Store *metadata.Store
	// The shared http client used for the downloads.
	HttpClient *common.HttpClient
	// The cache of the resolved plugin versions.
	VersionCache *cache.VersionCache
}

// Installs, uninstalls, updates and maintains plugins of scopes.
// All public operations hold the lock of the scope for their whole duration.
type Installer struct {
	logger       *slog.Logger
	store        *metadata.Store
	httpClient   *common.HttpClient
	versionCache *cache.VersionCache
	now          func() time.Time
}

func NewInstaller(settings *InstallerSettings) *Installer {
	return &Installer{
		logger:       settings.Logger.With(slog.String("component", "installer")),
		store:        settings.Store,
		httpClient:   settings.HttpClient,
		versionCache: settings.VersionCache,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

// Writes the metadata and combines a write failure with the error of the operation.
func (i *Installer) saveMetadata(scope metadata.Scope, instanceMetadata *metadata.InstanceMetadata, opErr error) error {
	if err := i.store.Save(scope, instanceMetadata); err != nil {
		i.logger.Error(fmt.Sprintf("Failed to write the metadata for '%s': %v", scope, err))
		if opErr == nil {
			return err
		}
		return fmt.Errorf("%w (metadata not written: %v)", opErr, err)
	}
	return opErr
}

// Deletes all orphaned dependencies from disk and drops their records.
// A dependency that cannot be deleted keeps its record.
func (i *Installer) removeOrphanedDependencies(instanceMetadata *metadata.InstanceMetadata, dependenciesDir string) {
	for _, name := range instanceMetadata.OrphanedDependencies() {
		i.logger.Info(fmt.Sprintf("Removing redundant dependency '%s'", name))
		deleted, err := common.DeleteIfExists(filepath.Join(dependenciesDir, name))
		if err != nil {
			i.logger.Warn(fmt.Sprintf("Failed to delete dependency '%s': %v", name, err))
			continue
		}
		if deleted {
			i.logger.Debug(fmt.Sprintf("Dependency '%s' deleted", name))
		} else {
			i.logger.Debug(fmt.Sprintf("Dependency '%s' does not exist", name))
		}
		delete(instanceMetadata.Dependencies, name)
	}
}

// Creates a fresh directory for a single operation inside the staging directory.
func (i *Installer) createOperationDirectory(pluginId string) (string, func(), error) {
	stagingDir := i.store.Paths().StagingDirectory()
	if err := os.MkdirAll(stagingDir, os.ModePerm); err != nil {
		return "", nil, fmt.Errorf("failed creating staging directory '%s': %w", stagingDir, err)
	}
	operationDir, err := os.MkdirTemp(stagingDir, common.SafePluginName(pluginId)+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed creating temp directory in '%s': %w", stagingDir, err)
	}
	cleanup := func() {
		if err := os.RemoveAll(operationDir); err != nil {
			i.logger.Warn(fmt.Sprintf("Failed to delete temp directory '%s': %v", operationDir, err))
		}
	}
	return operationDir, cleanup, nil
}
