package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roemer/plugman/pkg/common"
)

// Keeps the most recently resolved release of each plugin.
// Flushing to disk is up to the caller.
type VersionCache struct {
	logger        *slog.Logger
	registryCache *RegistryCache
	resolver      common.IVersionResolver
}

func NewVersionCache(logger *slog.Logger, registryCache *RegistryCache, resolver common.IVersionResolver) *VersionCache {
	return &VersionCache{
		logger:        logger.With(slog.String("component", "versionCache")),
		registryCache: registryCache,
		resolver:      resolver,
	}
}

// Resolves the latest release of the plugin and stores it in the cache.
// On failure, the cache stays untouched.
func (c *VersionCache) Refresh(ctx context.Context, pluginId string, interactive bool) (*common.VersionRecord, error) {
	record, err := c.resolver.ResolveLatest(ctx, pluginId, interactive)
	if err != nil {
		return nil, err
	}
	c.registryCache.SetVersion(pluginId, record)
	c.logger.Debug(fmt.Sprintf("Cached version '%s' for '%s'", record.Version, pluginId))
	return record, nil
}

// Resolves the release with the given tag without touching the cache.
func (c *VersionCache) ResolveTag(ctx context.Context, pluginId string, tag string, interactive bool) (*common.VersionRecord, error) {
	return c.resolver.ResolveTag(ctx, pluginId, tag, interactive)
}

// Gets the cached record of the plugin.
func (c *VersionCache) Get(pluginId string) (*common.VersionRecord, bool) {
	return c.registryCache.GetVersion(pluginId)
}

// Writes the underlying registry cache.
func (c *VersionCache) Flush() error {
	return c.registryCache.Save()
}
