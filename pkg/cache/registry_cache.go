package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/roemer/plugman/pkg/common"
	"github.com/samber/lo"
)

// The process-wide persisted data: the access token, the resolved versions and the plugin catalog.
type RegistryCache struct {
	AccessToken        *string                          `json:"accessToken,omitempty"`
	LastCatalogRefresh *time.Time                       `json:"lastPluginAliasesRefresh,omitempty"`
	PluginVersionCache map[string]*common.VersionRecord `json:"pluginVersionCache"`
	AvailablePlugins   []*common.CatalogEntry           `json:"availablePlugins"`

	filePath string
	mutex    sync.RWMutex
}

func NewRegistryCache(filePath string) *RegistryCache {
	return &RegistryCache{
		PluginVersionCache: map[string]*common.VersionRecord{},
		AvailablePlugins:   []*common.CatalogEntry{},
		filePath:           filePath,
	}
}

// Loads the cache from the given file. A missing file results in an empty cache.
func LoadRegistryCache(filePath string) (*RegistryCache, error) {
	registryCache := NewRegistryCache(filePath)
	content, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return registryCache, nil
	} else if err != nil {
		return nil, fmt.Errorf("error reading the cache file '%s': %w", filePath, err)
	}
	if err := json.Unmarshal(content, registryCache); err != nil {
		return nil, fmt.Errorf("error converting the cache file '%s' from json: %w", filePath, err)
	}
	if registryCache.PluginVersionCache == nil {
		registryCache.PluginVersionCache = map[string]*common.VersionRecord{}
	}
	if registryCache.AvailablePlugins == nil {
		registryCache.AvailablePlugins = []*common.CatalogEntry{}
	}
	return registryCache, nil
}

// Writes the full cache to its file.
func (c *RegistryCache) Save() error {
	c.mutex.RLock()
	content, err := json.MarshalIndent(c, "", "  ")
	c.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("error converting the cache to json: %w", err)
	}
	if err := common.WriteFileAtomic(c.filePath, content, 0o600); err != nil {
		return fmt.Errorf("error writing the cache file '%s': %w", c.filePath, err)
	}
	return nil
}

func (c *RegistryCache) FilePath() string {
	return c.filePath
}

// Gets the stored access token or an empty string.
func (c *RegistryCache) Token() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return lo.FromPtr(c.AccessToken)
}

// Sets the access token. An empty token clears it.
func (c *RegistryCache) SetToken(token string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.AccessToken = lo.Ternary(token == "", nil, &token)
}

func (c *RegistryCache) GetVersion(pluginId string) (*common.VersionRecord, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	record, ok := c.PluginVersionCache[pluginId]
	return record, ok && record != nil
}

func (c *RegistryCache) SetVersion(pluginId string, record *common.VersionRecord) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.PluginVersionCache[pluginId] = record
}

// Gets the time of the last catalog refresh.
func (c *RegistryCache) CatalogRefreshedAt() (time.Time, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.LastCatalogRefresh == nil {
		return time.Time{}, false
	}
	return *c.LastCatalogRefresh, true
}

// Gets a copy of the catalog entries.
func (c *RegistryCache) Catalog() []*common.CatalogEntry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return slices.Clone(c.AvailablePlugins)
}

// Replaces the whole catalog and sets the refresh time.
func (c *RegistryCache) ReplaceCatalog(entries []*common.CatalogEntry, refreshedAt time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.AvailablePlugins = slices.Clone(entries)
	c.LastCatalogRefresh = &refreshedAt
}
