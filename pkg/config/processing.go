package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roemer/plugman/pkg/common"
	"github.com/samber/lo"
)

// This method fills in defaults and expands environment variables. This should be called on any config object just after loading.
func (c *PlugmanConfig) PostLoadProcess() {
	if c.Paths == nil {
		c.Paths = &PathsConfig{}
	}
	for _, frameworkPaths := range []*FrameworkPathsConfig{c.Paths.LabApi, c.Paths.Exiled} {
		if frameworkPaths != nil {
			frameworkPaths.Plugins = expandPath(frameworkPaths.Plugins)
			frameworkPaths.Dependencies = expandPath(frameworkPaths.Dependencies)
		}
	}
	c.Paths.Staging = lo.Ternary(c.Paths.Staging != "", expandPath(c.Paths.Staging), filepath.Join(os.TempDir(), "plugman"))
	c.Paths.RegistryCache = expandPath(c.Paths.RegistryCache)
	if c.Paths.RegistryCache == "" {
		c.Paths.RegistryCache = defaultRegistryCachePath()
	}

	if c.Catalog == nil {
		c.Catalog = &CatalogConfig{}
	}
	if c.Catalog.BaseUrl == "" {
		c.Catalog.BaseUrl = common.DEFAULT_CATALOG_BASE_URL
	}
	if !strings.HasSuffix(c.Catalog.BaseUrl, "/") {
		c.Catalog.BaseUrl += "/"
	}

	if c.ReleaseHost == nil {
		c.ReleaseHost = &ReleaseHostConfig{}
	}
	if c.ReleaseHost.Type == "" {
		c.ReleaseHost.Type = common.RELEASE_HOST_TYPE_GITHUB
	}

	if c.HttpTimeoutSeconds <= 0 {
		c.HttpTimeoutSeconds = int(common.DEFAULT_HTTP_TIMEOUT / time.Second)
	}
	if c.UserAgent == "" {
		c.UserAgent = "plugman"
	}
}

// Returns the configured http timeout as duration.
func (c *PlugmanConfig) HttpTimeout() time.Duration {
	return time.Duration(c.HttpTimeoutSeconds) * time.Second
}

// Searches the token for the release host, either from the environment or from a matching host rule.
func (c *PlugmanConfig) ReleaseHostToken(host string) string {
	if token := os.Getenv(ENV_TOKEN); token != "" {
		return token
	}
	if hostRule := common.GetHostRuleForHost(c.HostRules, host); hostRule != nil {
		return hostRule.TokenExpanded()
	}
	return ""
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	path = os.ExpandEnv(path)
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

func defaultRegistryCachePath() string {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		baseDir = os.TempDir()
	}
	return filepath.Join(baseDir, "plugman", common.REGISTRY_CACHE_FILE_NAME)
}
