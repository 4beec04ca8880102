package plugman

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/roemer/plugman/pkg/cache"
	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/config"
	"github.com/stretchr/testify/assert"
)

type cliTestEnv struct {
	root       string
	configPath string
	cachePath  string
	mutex      sync.Mutex
	// The authorization header of the last binary download.
	downloadAuthorization string
}

// Creates a config pointing to a fake release host and catalog.
func newCliTestEnv(t *testing.T, hostRules ...*common.HostRule) *cliTestEnv {
	t.Setenv(config.ENV_TOKEN, "")
	t.Setenv(config.ENV_CONFIG, "")

	env := &cliTestEnv{}
	var serverUrl string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/plugin":
			if r.URL.Query().Get("limit") == "0" {
				fmt.Fprint(w, `{"data": {"data": [], "meta": {"total": 1}}}`)
				return
			}
			fmt.Fprint(w, `{"data": {"data": [
				{"id": "1", "name": "Tools", "description": "Admin tools", "repository": "https://github.com/alpha/tools"}
			], "meta": {"total": 1}}}`)
		case "/repos/alpha/tools/releases/latest":
			fmt.Fprintf(w, `{"id": 1, "tag_name": "v1.0.0", "assets": [
				{"name": "Tools.dll", "url": "%s/repos/alpha/tools/releases/assets/1", "browser_download_url": "%s/download/Tools.dll"}]}`, serverUrl, serverUrl)
		case "/repos/alpha/tools/releases/assets/1":
			if r.Header.Get("Accept") != common.ContentTypeBinary {
				w.WriteHeader(http.StatusNotAcceptable)
				return
			}
			env.mutex.Lock()
			env.downloadAuthorization = r.Header.Get("Authorization")
			env.mutex.Unlock()
			fmt.Fprint(w, "tools binary")
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
	}))
	t.Cleanup(server.Close)
	serverUrl = server.URL

	root := t.TempDir()
	env.root = root
	env.configPath = filepath.Join(root, "plugman.json")
	env.cachePath = filepath.Join(root, "cache", common.REGISTRY_CACHE_FILE_NAME)
	content, err := json.Marshal(&config.PlugmanConfig{
		Paths: &config.PathsConfig{
			LabApi: &config.FrameworkPathsConfig{
				Plugins:      filepath.Join(root, "plugins"),
				Dependencies: filepath.Join(root, "dependencies"),
			},
			Staging:       filepath.Join(root, "staging"),
			RegistryCache: env.cachePath,
		},
		Catalog:     &config.CatalogConfig{BaseUrl: server.URL + "/api/v1/"},
		ReleaseHost: &config.ReleaseHostConfig{Type: common.RELEASE_HOST_TYPE_GITHUB, Endpoint: server.URL},
		HostRules:   hostRules,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.configPath, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *cliTestEnv) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)
	cmd.SetArgs(append([]string{"--config", e.configPath, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return output.String(), err
}

func TestInstallListUninstall(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t)

	_, err := env.run("install", "Tools", "--instance", "7777")
	assert.NoError(err)
	pluginPath := filepath.Join(env.root, "plugins", "7777", "alpha_tools.dll")
	assert.FileExists(pluginPath)

	output, err := env.run("list", "--instance", "7777", "--skip-check")
	assert.NoError(err)
	assert.Contains(output, "alpha/tools")
	assert.Contains(output, "v1.0.0")

	output, err = env.run("check", "--instance", "7777")
	assert.NoError(err)
	assert.Contains(output, "upToDate")

	_, err = env.run("uninstall", "alpha/tools", "--instance", "7777")
	assert.NoError(err)
	assert.NoFileExists(pluginPath)

	output, err = env.run("list", "--instance", "7777", "--skip-check")
	assert.NoError(err)
	assert.Contains(output, "No plugins installed")
}

func TestInstallUnknownPlugin(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t)

	_, err := env.run("install", "beta/missing", "--instance", "7777")
	assert.ErrorIs(err, common.ErrNotFound)
	_, err = env.run("install", "Unknown Plugin", "--instance", "7777")
	assert.ErrorIs(err, common.ErrInvalidPluginId)
}

func TestUpdateWithoutPlugins(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t)

	_, err := env.run("update")
	assert.NoError(err)
	_, err = env.run("maintenance")
	assert.NoError(err)
}

func TestUnavailableFramework(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t)

	_, err := env.run("list", "--framework", "exiled")
	assert.ErrorIs(err, common.ErrFrameworkUnavailable)
	_, err = env.run("list", "--framework", "unknown")
	assert.ErrorIs(err, common.ErrFrameworkUnavailable)
}

func TestCatalogSearch(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t)

	output, err := env.run("catalog", "search", "admin")
	assert.NoError(err)
	assert.Contains(output, "Tools")
	assert.Contains(output, "https://github.com/alpha/tools")

	output, err = env.run("catalog", "search", "nothing-matches", "--skip-refresh")
	assert.NoError(err)
	assert.Contains(output, "No plugins found")
}

func TestTokenSetAndClear(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t)

	_, err := env.run("token", "set", "secret")
	assert.NoError(err)
	registryCache, err := cache.LoadRegistryCache(env.cachePath)
	assert.NoError(err)
	assert.Equal("secret", registryCache.Token())

	_, err = env.run("token", "clear")
	assert.NoError(err)
	registryCache, err = cache.LoadRegistryCache(env.cachePath)
	assert.NoError(err)
	assert.Equal("", registryCache.Token())
}

func (e *cliTestEnv) lastDownloadAuthorization() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.downloadAuthorization
}

func TestDownloadUsesHostRuleToken(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t, &common.HostRule{MatchHost: "127.0.0.1", Token: "rule-token"})

	_, err := env.run("install", "alpha/tools", "--instance", "7777")
	assert.NoError(err)
	assert.Equal("Bearer rule-token", env.lastDownloadAuthorization())
}

func TestDownloadPrefersStoredToken(t *testing.T) {
	assert := assert.New(t)
	env := newCliTestEnv(t, &common.HostRule{MatchHost: "127.0.0.1", Token: "rule-token"})

	_, err := env.run("token", "set", "stored-token")
	assert.NoError(err)
	_, err = env.run("install", "alpha/tools", "--instance", "7777")
	assert.NoError(err)
	assert.Equal("Bearer stored-token", env.lastDownloadAuthorization())
}
