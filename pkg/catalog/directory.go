package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roemer/plugman/pkg/cache"
	"github.com/roemer/plugman/pkg/common"
	"github.com/samber/lo"
)

type DirectorySettings struct {
	Logger *slog.Logger
	// The base url of the catalog api, ending with a slash.
	BaseUrl string
	// The http client for the catalog. Must not carry the release host token.
	HttpClient    *common.HttpClient
	RegistryCache *cache.RegistryCache
}

// The snapshot of the official plugin catalog, kept in the registry cache.
type Directory struct {
	logger        *slog.Logger
	baseUrl       string
	httpClient    *common.HttpClient
	registryCache *cache.RegistryCache
	now           func() time.Time
}

type catalogResponse struct {
	Message string              `json:"message"`
	Data    catalogResponseData `json:"data"`
}

type catalogResponseData struct {
	Data []*common.CatalogEntry `json:"data"`
	Meta catalogResponseMeta    `json:"meta"`
}

type catalogResponseMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages *int `json:"totalPages"`
}

func NewDirectory(settings *DirectorySettings) *Directory {
	baseUrl := lo.Ternary(settings.BaseUrl != "", settings.BaseUrl, common.DEFAULT_CATALOG_BASE_URL)
	if !strings.HasSuffix(baseUrl, "/") {
		baseUrl += "/"
	}
	return &Directory{
		logger:        settings.Logger.With(slog.String("component", "catalog")),
		baseUrl:       baseUrl,
		httpClient:    settings.HttpClient,
		registryCache: settings.RegistryCache,
		now:           time.Now,
	}
}

// Checks if the catalog was never refreshed or the last refresh is older than the refresh interval.
func (d *Directory) IsRefreshNeeded() bool {
	refreshedAt, ok := d.registryCache.CatalogRefreshedAt()
	if !ok {
		d.logger.Info("The plugin catalog was never refreshed")
		return true
	}
	if d.now().Sub(refreshedAt) <= common.CATALOG_REFRESH_INTERVAL {
		return false
	}
	d.logger.Info(fmt.Sprintf("The last plugin catalog refresh is older than %s", common.CATALOG_REFRESH_INTERVAL))
	return true
}

// Fetches the full catalog and replaces the cached one. On any failure, the cached catalog stays untouched.
func (d *Directory) Refresh(ctx context.Context) error {
	d.logger.Info("Refreshing the plugin catalog")

	// Query the total amount of plugins
	sizeResponse := &catalogResponse{}
	statusCode, err := d.httpClient.GetJson(ctx, d.baseUrl+"plugin?limit=0", sizeResponse)
	if err != nil {
		d.logger.Error(fmt.Sprintf("Failed to query the plugin catalog size: %v", err))
		return err
	}
	if !isSuccess(statusCode) || sizeResponse.Data.Meta.Total <= 0 {
		d.logger.Error(fmt.Sprintf("Failed to find the plugin catalog (status code: %d)", statusCode))
		return fmt.Errorf("catalog size query returned status %d with a total of %d: %w", statusCode, sizeResponse.Data.Meta.Total, common.ErrTransient)
	}

	// Fetch the whole catalog at once
	full := &catalogResponse{}
	statusCode, err = d.httpClient.GetJson(ctx, fmt.Sprintf("%splugin?limit=%d", d.baseUrl, sizeResponse.Data.Meta.Total), full)
	if err != nil {
		d.logger.Error(fmt.Sprintf("Failed to refresh the plugin catalog: %v", err))
		return err
	}
	if !isSuccess(statusCode) {
		d.logger.Error(fmt.Sprintf("Failed to refresh the plugin catalog (status code: %d)", statusCode))
		return fmt.Errorf("catalog query returned status %d: %w", statusCode, common.ErrTransient)
	}

	entries := lo.Filter(full.Data.Data, func(entry *common.CatalogEntry, _ int) bool { return entry != nil })
	d.registryCache.ReplaceCatalog(entries, d.now().UTC())
	if err := d.registryCache.Save(); err != nil {
		return err
	}
	d.logger.Info(fmt.Sprintf("The plugin catalog has been refreshed with %s", common.GetSingularPluralStringSimple(entries, "plugin")))
	return nil
}

// Gets all cached catalog entries.
func (d *Directory) Entries() []*common.CatalogEntry {
	return d.registryCache.Catalog()
}

// Finds an entry by its id or its name (case-insensitive).
func (d *Directory) Find(nameOrId string) (*common.CatalogEntry, bool) {
	return lo.Find(d.registryCache.Catalog(), func(entry *common.CatalogEntry) bool {
		return entry.Id == nameOrId || strings.EqualFold(entry.Name, nameOrId)
	})
}

// Gets all entries whose name or description contains the query (case-insensitive).
func (d *Directory) Search(query string) []*common.CatalogEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	return lo.Filter(d.registryCache.Catalog(), func(entry *common.CatalogEntry, _ int) bool {
		return query == "" ||
			strings.Contains(strings.ToLower(entry.Name), query) ||
			strings.Contains(strings.ToLower(entry.Description), query)
	})
}

// Turns a catalog plugin name into its "owner/repo" identifier.
// Values that already are identifiers are returned unchanged.
func (d *Directory) ResolveIdentifier(nameOrId string) (string, error) {
	if common.ValidatePluginId(nameOrId) == nil {
		return nameOrId, nil
	}
	entry, found := d.Find(nameOrId)
	if !found {
		return "", fmt.Errorf("'%s' is neither an identifier nor a known catalog plugin: %w", nameOrId, common.ErrInvalidPluginId)
	}
	pluginId, err := RepositoryToPluginId(entry.Repository)
	if err != nil {
		return "", err
	}
	d.logger.Info(fmt.Sprintf("Plugin name '%s' has been resolved to '%s'", nameOrId, pluginId))
	return pluginId, nil
}

// Extracts the "owner/repo" part out of a repository url.
func RepositoryToPluginId(repository string) (string, error) {
	repository = strings.TrimSpace(repository)
	if common.ValidatePluginId(repository) == nil {
		return repository, nil
	}
	parsedUrl, err := url.Parse(repository)
	if err != nil {
		return "", fmt.Errorf("invalid repository '%s': %w", repository, common.ErrInvalidPluginId)
	}
	parts := lo.Compact(strings.Split(strings.TrimSuffix(parsedUrl.Path, ".git"), "/"))
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid repository '%s': %w", repository, common.ErrInvalidPluginId)
	}
	pluginId := parts[len(parts)-2] + "/" + parts[len(parts)-1]
	return pluginId, common.ValidatePluginId(pluginId)
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func isSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
