package plugman

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roemer/plugman/pkg/cache"
	"github.com/roemer/plugman/pkg/catalog"
	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/config"
	"github.com/roemer/plugman/pkg/installer"
	"github.com/roemer/plugman/pkg/logging"
	"github.com/roemer/plugman/pkg/metadata"
	"github.com/roemer/plugman/pkg/releases"
	"github.com/samber/lo"
)

// The version of plugman, set on build.
var Version = "0.1.0"

// The flags that are shared by all commands.
type globalOptions struct {
	configFile string
	verbose    bool
	noColor    bool
	instance   string
	framework  string
}

// Holds all wired components for a single command run.
type application struct {
	logger        *slog.Logger
	config        *config.PlugmanConfig
	registryCache *cache.RegistryCache
	releaseClient *common.HttpClient
	// The token of the host rule matching the release host, used when no token is stored.
	hostRuleToken string
	versionCache  *cache.VersionCache
	directory     *catalog.Directory
	installer     *installer.Installer
}

func newApplication(options *globalOptions, output io.Writer) (*application, error) {
	// Create a logger
	desiredLogLevel := lo.Ternary(options.verbose, slog.LevelDebug, slog.LevelInfo)
	logger := slog.New(logging.NewReadableTextHandler(output, &logging.ReadableTextHandlerOptions{Level: desiredLogLevel, NoColor: options.noColor}))
	logger.Debug(fmt.Sprintf("Initialized logger with level: %s", desiredLogLevel))

	// Read the configuration
	plugmanConfig, err := config.Load(options.configFile)
	if err != nil {
		return nil, err
	}

	registryCache, err := cache.LoadRegistryCache(plugmanConfig.Paths.RegistryCache)
	if err != nil {
		return nil, err
	}

	// The release client carries the stored token or the host rule token, the catalog client never does
	releaseClient := common.NewHttpClient(plugmanConfig.HttpTimeout(), plugmanConfig.UserAgent)
	releaseHost := releases.EndpointHost(plugmanConfig.ReleaseHost.Type, plugmanConfig.ReleaseHost.Endpoint)
	hostRuleToken := plugmanConfig.ReleaseHostToken(releaseHost)
	releaseClient.SetToken(lo.CoalesceOrEmpty(registryCache.Token(), hostRuleToken))
	catalogClient := common.NewHttpClient(plugmanConfig.HttpTimeout(), plugmanConfig.UserAgent)

	releaseSource, err := releases.GetReleaseSource(plugmanConfig.ReleaseHost.Type, &releases.ReleaseSourceSettings{
		Logger:     logger,
		Endpoint:   plugmanConfig.ReleaseHost.Endpoint,
		HttpClient: releaseClient,
		HostToken:  plugmanConfig.ReleaseHostToken,
	})
	if err != nil {
		return nil, err
	}
	versionCache := cache.NewVersionCache(logger, registryCache, releases.NewResolver(logger, releaseSource))

	return &application{
		logger:        logger,
		config:        plugmanConfig,
		registryCache: registryCache,
		releaseClient: releaseClient,
		hostRuleToken: hostRuleToken,
		versionCache:  versionCache,
		directory: catalog.NewDirectory(&catalog.DirectorySettings{
			Logger:        logger,
			BaseUrl:       plugmanConfig.Catalog.BaseUrl,
			HttpClient:    catalogClient,
			RegistryCache: registryCache,
		}),
		installer: installer.NewInstaller(&installer.InstallerSettings{
			Logger:       logger,
			Store:        metadata.NewStore(logger, plugmanConfig.PathsProvider()),
			HttpClient:   releaseClient,
			VersionCache: versionCache,
		}),
	}, nil
}

// Builds the scope out of the global flags.
func (options *globalOptions) scope() (metadata.Scope, error) {
	scope := metadata.NewScope(options.instance, common.FrameworkType(options.framework))
	if err := scope.Validate(); err != nil {
		return scope, err
	}
	return scope, nil
}

// Refreshes the catalog if it is outdated.
func (a *application) refreshCatalogIfNeeded(ctx context.Context, skipRefresh bool) {
	if skipRefresh || !a.directory.IsRefreshNeeded() {
		return
	}
	if err := a.directory.Refresh(ctx); err != nil {
		a.logger.Warn(fmt.Sprintf("Failed to refresh the plugin catalog: %v", err))
	}
}

// Turns a catalog name or an identifier into a plugin identifier.
func (a *application) resolvePluginId(ctx context.Context, nameOrId string, skipRefresh bool) (string, error) {
	if common.ValidatePluginId(nameOrId) == nil {
		return nameOrId, nil
	}
	a.refreshCatalogIfNeeded(ctx, skipRefresh)
	return a.directory.ResolveIdentifier(nameOrId)
}
