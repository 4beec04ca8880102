package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roemer/plugman/pkg/common"
	"github.com/stretchr/testify/assert"
)

func TestPostLoadProcess(t *testing.T) {
	assert := assert.New(t)

	plugmanConfig := &PlugmanConfig{
		Catalog: &CatalogConfig{BaseUrl: "http://localhost/api/v1"},
	}
	plugmanConfig.PostLoadProcess()

	assert.Equal("http://localhost/api/v1/", plugmanConfig.Catalog.BaseUrl)
	assert.Equal(common.RELEASE_HOST_TYPE_GITHUB, plugmanConfig.ReleaseHost.Type)
	assert.Equal(45, plugmanConfig.HttpTimeoutSeconds)
	assert.Equal(common.DEFAULT_HTTP_TIMEOUT, plugmanConfig.HttpTimeout())
	assert.Equal("plugman", plugmanConfig.UserAgent)
	assert.NotEmpty(plugmanConfig.Paths.Staging)
	assert.Equal(common.REGISTRY_CACHE_FILE_NAME, filepath.Base(plugmanConfig.Paths.RegistryCache))
}

func TestLoadYaml(t *testing.T) {
	assert := assert.New(t)

	configPath := filepath.Join(t.TempDir(), "plugman.yaml")
	content := `
paths:
  labapi:
    plugins: /srv/labapi/plugins
    dependencies: /srv/labapi/dependencies
releaseHost:
  type: gitea
  endpoint: https://git.example.com
hostRules:
  - matchHost: git.example.com
    token: abc
httpTimeoutSeconds: 10
`
	assert.NoError(os.WriteFile(configPath, []byte(content), 0o644))

	plugmanConfig, err := Load(configPath)
	assert.NoError(err)
	assert.Equal(common.RELEASE_HOST_TYPE_GITEA, plugmanConfig.ReleaseHost.Type)
	assert.Equal("https://git.example.com", plugmanConfig.ReleaseHost.Endpoint)
	assert.Equal(10, plugmanConfig.HttpTimeoutSeconds)
	assert.Equal(common.DEFAULT_CATALOG_BASE_URL, plugmanConfig.Catalog.BaseUrl)

	t.Setenv(ENV_TOKEN, "")
	assert.Equal("abc", plugmanConfig.ReleaseHostToken("git.example.com"))
	assert.Equal("", plugmanConfig.ReleaseHostToken("api.github.com"))
	t.Setenv(ENV_TOKEN, "fromEnv")
	assert.Equal("fromEnv", plugmanConfig.ReleaseHostToken("git.example.com"))

	provider := plugmanConfig.PathsProvider()
	pluginsDir, err := provider.PluginsDirectory(common.FRAMEWORK_TYPE_LABAPI)
	assert.NoError(err)
	assert.Equal(filepath.Clean("/srv/labapi/plugins"), pluginsDir)
	_, err = provider.DependenciesDirectory(common.FRAMEWORK_TYPE_EXILED)
	assert.ErrorIs(err, common.ErrFrameworkUnavailable)
}

func TestLoadJsonWithComments(t *testing.T) {
	assert := assert.New(t)

	basePath := filepath.Join(t.TempDir(), "plugman")
	content := `{
  // the exiled location
  "paths": { "exiled": { "plugins": "/srv/exiled/plugins", "dependencies": "/srv/exiled/deps" } },
  "userAgent": "test-agent"
}`
	assert.NoError(os.WriteFile(basePath+".jsonc", []byte(content), 0o644))

	plugmanConfig, err := Load(basePath)
	assert.NoError(err)
	assert.Equal("test-agent", plugmanConfig.UserAgent)
	assert.Equal(filepath.Clean("/srv/exiled/deps"), plugmanConfig.Paths.Exiled.Dependencies)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)
}

func TestFileSearch(t *testing.T) {
	assert := assert.New(t)

	for _, fileName := range []string{"plugman.json", "plugman.jsonc", "plugman.yaml", "plugman.yml"} {
		dir := t.TempDir()
		fileToCreate := filepath.Join(dir, fileName)
		assert.NoError(os.WriteFile(fileToCreate, []byte{}, 0o644))

		foundPath, err := SearchConfigFileFromPath(filepath.Join(dir, "plugman"))
		assert.NoError(err)
		assert.Equal(fileToCreate, foundPath)
	}

	foundPath, err := SearchConfigFileFromPath(filepath.Join(t.TempDir(), "plugman"))
	assert.NoError(err)
	assert.Equal("", foundPath)
}
